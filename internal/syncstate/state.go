package syncstate

import (
	"encoding/json"
	"fmt"
)

// State is one consumer's handle on a synced key. Handles on the same key
// share the value; each is notified when another handle changes it.
type State[T any] struct {
	hub    *Hub
	key    string
	def    T
	defRaw []byte
	sub    *subscription
}

// Open returns a handle on key without blocking. The value is whatever the
// process or the local cache already holds, or def. A background fetch then
// refreshes it from the remote, or seeds the remote with the local value when
// the key is missing there.
func Open[T any](h *Hub, key string, def T) *State[T] {
	s := &State[T]{
		hub: h,
		key: key,
		def: def,
		sub: &subscription{ch: make(chan struct{}, 1), alive: true},
	}
	if raw, err := json.Marshal(def); err == nil {
		s.defRaw = raw
	} else {
		h.log.Warn("default value cannot be encoded", "key", key, "error", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.entryLocked(key)
	e.subs[s.sub] = struct{}{}
	if !h.closed {
		h.beginLocked()
		go h.fetch(key, s.sub, s.defRaw, s.check)
	}
	return s
}

// Key returns the synced key.
func (s *State[T]) Key() string { return s.key }

// check verifies a remote document decodes as T.
func (s *State[T]) check(raw []byte) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decoding %s: %w", s.key, err)
	}
	return nil
}

// decode turns stored bytes into a fresh T, falling back to the default.
func (s *State[T]) decode(raw []byte) T {
	if raw == nil {
		raw = s.defRaw
	}
	if raw == nil {
		return s.def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.hub.log.Warn("cached value cannot be decoded, using default", "key", s.key, "error", err)
		return s.def
	}
	return v
}

// Value returns a copy of the current value.
func (s *State[T]) Value() T {
	s.hub.mu.Lock()
	raw := s.hub.entryLocked(s.key).value
	s.hub.mu.Unlock()
	return s.decode(raw)
}

// Set replaces the value. It is visible to every handle on return; the remote
// write happens in the background.
func (s *State[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update applies fn to the current value and stores the result atomically with
// respect to other writers in the process. fn must not use the Hub.
func (s *State[T]) Update(fn func(prev T) T) T {
	return s.TryUpdate(func(prev T) (T, bool) { return fn(prev), true })
}

// TryUpdate is Update for changes that may turn out to be no-ops: when fn
// reports false nothing is stored, synced or announced.
func (s *State[T]) TryUpdate(fn func(prev T) (T, bool)) T {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entryLocked(s.key)
	next, changed := fn(s.decode(e.value))
	if !changed {
		return next
	}
	raw, err := json.Marshal(next)
	if err != nil {
		e.lastErr = fmt.Errorf("encoding %s: %w", s.key, err)
		h.log.Error("value cannot be encoded, keeping previous", "key", s.key, "error", err)
		return s.decode(e.value)
	}
	e.explicit = true
	h.storeLocked(s.key, e, raw, s.sub)
	h.enqueueLocked(s.key, e, writeOp{value: raw})
	return next
}

// Remove resets the key to its default and deletes it remotely.
func (s *State[T]) Remove() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entryLocked(s.key)
	e.explicit = true
	h.storeLocked(s.key, e, nil, s.sub)
	h.enqueueLocked(s.key, e, writeOp{remove: true})
}

// Changes delivers a signal whenever another handle, or a remote fetch,
// changes the value. Signals coalesce; re-read Value after each one.
// The channel is closed by Close.
func (s *State[T]) Changes() <-chan struct{} { return s.sub.ch }

// SyncErr returns the key's last sync failure, if the latest attempt failed.
func (s *State[T]) SyncErr() error { return s.hub.LastError(s.key) }

// Close detaches the handle. A fetch still in flight for it is discarded.
func (s *State[T]) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if !s.sub.alive {
		return
	}
	s.sub.alive = false
	if e, ok := h.entries[s.key]; ok {
		delete(e.subs, s.sub)
	}
	close(s.sub.ch)
}
