// Package syncstate provides local-first values that mirror a remote
// key-value store in the background.
//
// Reads and writes are served from memory and a local cache without waiting
// on the network. Each key has its own background write queue: at most one
// remote write is in flight per key, and writes issued while one is running
// collapse into the most recent value, so the remote copy never goes
// backwards. Failures never reach callers; they are logged and kept as the
// key's last sync error.
package syncstate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/workoutlog/internal/kvstore"
)

// Cache is the synchronous on-device copy of synced values.
type Cache interface {
	Load(key string) ([]byte, bool, error)
	Store(key string, value []byte) error
	Delete(key string) error
}

// Sync operations reported to Options.OnSync.
const (
	OpFetch     = "fetch"
	OpPut       = "put"
	OpDelete    = "delete"
	OpBootstrap = "bootstrap"
)

// Options tunes a Hub. Zero values select the defaults.
type Options struct {
	Log *slog.Logger
	// Timeout bounds each remote call. Defaults to 30s.
	Timeout time.Duration
	// OnSync, if set, is called after every remote operation.
	OnSync func(key, op string, err error)
}

// Hub shares synced keys between every State opened on it.
type Hub struct {
	remote  kvstore.Store
	cache   Cache
	log     *slog.Logger
	timeout time.Duration
	onSync  func(key, op string, err error)

	mu      sync.Mutex
	entries map[string]*entry
	busy    int
	idle    chan struct{}
	closed  bool
}

type entry struct {
	value        []byte // nil while the key holds its default
	explicit     bool   // set or removed during this session
	bootstrapped bool
	subs         map[*subscription]struct{}
	pending      *writeOp
	writing      bool
	lastErr      error
}

type writeOp struct {
	remove    bool
	bootstrap bool
	value     []byte
}

type subscription struct {
	ch    chan struct{}
	alive bool
}

// NewHub creates a Hub that reads and writes through cache and mirrors to remote.
// The Hub does not close either of them.
func NewHub(remote kvstore.Store, cache Cache, opts Options) *Hub {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Hub{
		remote:  remote,
		cache:   cache,
		log:     opts.Log,
		timeout: opts.Timeout,
		onSync:  opts.OnSync,
		entries: make(map[string]*entry),
	}
}

// entryLocked returns the entry for key, loading it from the cache on first use.
func (h *Hub) entryLocked(key string) *entry {
	if e, ok := h.entries[key]; ok {
		return e
	}
	e := &entry{subs: make(map[*subscription]struct{})}
	v, ok, err := h.cache.Load(key)
	switch {
	case err != nil:
		e.lastErr = err
		h.log.Warn("local cache read failed", "key", key, "error", err)
	case ok:
		e.value = v
	}
	h.entries[key] = e
	return e
}

// beginLocked registers one unit of background work.
func (h *Hub) beginLocked() {
	if h.busy == 0 {
		h.idle = make(chan struct{})
	}
	h.busy++
}

func (h *Hub) done() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.busy--
	if h.busy == 0 {
		close(h.idle)
	}
}

// storeLocked replaces the local value of key and tells every subscriber but skip.
func (h *Hub) storeLocked(key string, e *entry, value []byte, skip *subscription) {
	e.value = value
	var err error
	if value == nil {
		err = h.cache.Delete(key)
	} else {
		err = h.cache.Store(key, value)
	}
	if err != nil {
		e.lastErr = err
		h.log.Warn("local cache write failed", "key", key, "error", err)
	}
	for sub := range e.subs {
		if sub == skip {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

// enqueueLocked makes op the next remote write for key, replacing any write
// that has not started yet.
func (h *Hub) enqueueLocked(key string, e *entry, op writeOp) {
	if h.closed {
		h.log.Warn("hub closed, remote write dropped", "key", key)
		return
	}
	e.pending = &op
	if e.writing {
		return
	}
	e.writing = true
	h.beginLocked()
	go h.drain(key, e)
}

func (h *Hub) drain(key string, e *entry) {
	defer h.done()
	for {
		h.mu.Lock()
		op := e.pending
		if op == nil {
			e.writing = false
			h.mu.Unlock()
			return
		}
		e.pending = nil
		h.mu.Unlock()

		name, err := h.write(key, *op)

		h.mu.Lock()
		e.lastErr = err
		h.mu.Unlock()

		if err != nil {
			h.log.Warn("remote sync failed", "key", key, "op", name, "error", err)
		} else if op.bootstrap {
			h.log.Debug("bootstrapped remote key", "key", key)
		}
		h.report(key, name, err)
	}
}

func (h *Hub) write(key string, op writeOp) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	switch {
	case op.remove:
		return OpDelete, h.remote.Delete(ctx, key)
	case op.bootstrap:
		return OpBootstrap, h.remote.Put(ctx, key, op.value)
	default:
		return OpPut, h.remote.Put(ctx, key, op.value)
	}
}

// fetch loads key from the remote for sub. Remote data replaces the local
// value only if sub is still open and the key was not written this session.
func (h *Hub) fetch(key string, sub *subscription, def []byte, check func([]byte) error) {
	defer h.done()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	value, err := h.remote.Get(ctx, key)
	cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.entries[key]

	if !sub.alive {
		h.log.Debug("discarding fetch for closed state", "key", key)
		return
	}

	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		h.report(key, OpFetch, nil)
		if e.explicit || e.bootstrapped {
			return
		}
		e.bootstrapped = true
		push := e.value
		if push == nil {
			push = def
		}
		if push != nil {
			h.enqueueLocked(key, e, writeOp{bootstrap: true, value: push})
		}
	case err != nil:
		e.lastErr = err
		h.log.Warn("remote fetch failed", "key", key, "error", err)
		h.report(key, OpFetch, err)
	default:
		h.report(key, OpFetch, nil)
		if e.explicit {
			h.log.Debug("keeping local value written this session", "key", key)
			return
		}
		if err := check(value); err != nil {
			e.lastErr = err
			h.log.Warn("remote value rejected", "key", key, "error", err)
			return
		}
		e.lastErr = nil
		if !bytes.Equal(e.value, value) {
			h.storeLocked(key, e, value, nil)
		}
	}
}

func (h *Hub) report(key, op string, err error) {
	if h.onSync != nil {
		h.onSync(key, op, err)
	}
}

// LastError returns the most recent sync failure for key, or nil once a later
// operation succeeded.
func (h *Hub) LastError(key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.entries[key]; ok {
		return e.lastErr
	}
	return nil
}

// Flush waits until no fetch or remote write is running or queued.
func (h *Hub) Flush(ctx context.Context) error {
	for {
		h.mu.Lock()
		if h.busy == 0 {
			h.mu.Unlock()
			return nil
		}
		idle := h.idle
		h.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting remote work and waits for what is already queued.
// Values written afterwards stay local.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return h.Flush(ctx)
}
