package localcache

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/coocood/freecache"
)

const megabyte = 1024 * 1024

// DefaultMemoryMB sizes the memory cache so that the largest document the
// server accepts (8 MiB) fits with room to spare.
const DefaultMemoryMB = 64

// Memory is a process-local cache for runs that should leave nothing on disk.
// Entries never expire but may be evicted once size is exceeded.
//
// freecache refuses entries above 1/1024 of its size, so values are split
// into chunks of a quarter of that, stored under "<key>\x00<n>" with the
// chunk count under key. A value with an evicted chunk loads as a miss.
type Memory struct {
	mu       sync.Mutex
	cache    *freecache.Cache
	chunk    int
	maxValue int
}

// NewMemory creates a Memory cache of sizeMB megabytes (minimum 1).
func NewMemory(sizeMB int) *Memory {
	if sizeMB < 1 {
		sizeMB = 1
	}
	size := sizeMB * megabyte
	return &Memory{
		cache:    freecache.NewCache(size),
		chunk:    size / 4096,
		maxValue: size / 4,
	}
}

func chunkKey(key string, i int) []byte {
	return []byte(key + "\x00" + strconv.Itoa(i))
}

func (m *Memory) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok, err := m.chunks(key)
	if err != nil || !ok {
		return nil, false, err
	}
	out := make([]byte, 0, n*m.chunk)
	for i := 0; i < n; i++ {
		part, err := m.cache.Get(chunkKey(key, i))
		if errors.Is(err, freecache.ErrNotFound) {
			m.deleteLocked(key, n)
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		out = append(out, part...)
	}
	return out, true, nil
}

func (m *Memory) Store(key string, value []byte) error {
	if len(value) > m.maxValue {
		return fmt.Errorf("localcache: %s is %d bytes, memory cache holds at most %d", key, len(value), m.maxValue)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok, _ := m.chunks(key); ok {
		m.deleteLocked(key, old)
	}
	n := 0
	for off := 0; off < len(value); off += m.chunk {
		end := min(off+m.chunk, len(value))
		if err := m.cache.Set(chunkKey(key, n), value[off:end], 0); err != nil {
			m.deleteLocked(key, n)
			return fmt.Errorf("localcache: storing %s: %w", key, err)
		}
		n++
	}
	if err := m.cache.Set([]byte(key), []byte(strconv.Itoa(n)), 0); err != nil {
		m.deleteLocked(key, n)
		return fmt.Errorf("localcache: storing %s: %w", key, err)
	}
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok, _ := m.chunks(key); ok {
		m.deleteLocked(key, n)
	}
	return nil
}

func (m *Memory) Close() error {
	m.cache.Clear()
	return nil
}

// chunks reads the chunk count stored under key.
func (m *Memory) chunks(key string) (int, bool, error) {
	v, err := m.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, false, fmt.Errorf("localcache: corrupt header for %s: %w", key, err)
	}
	return n, true, nil
}

func (m *Memory) deleteLocked(key string, n int) {
	m.cache.Del([]byte(key))
	for i := 0; i < n; i++ {
		m.cache.Del(chunkKey(key, i))
	}
}
