package locking

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker is an in-process keyed mutex. Entries are dropped once unused.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	wait    time.Duration
}

// NewMemoryLocker builds an empty locker. A contended key is waited on for at
// most wait; zero or less waits until ctx is done.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*memoryEntry), wait: wait}
}

// Lock blocks until the key is free, ctx is done, or the wait limit passes.
func (m *MemoryLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &memoryEntry{ch: make(chan struct{}, 1)}
		m.entries[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	var expired <-chan time.Time
	if m.wait > 0 {
		timer := time.NewTimer(m.wait)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case entry.ch <- struct{}{}:
	case <-expired:
		m.release(key, entry, false)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		m.release(key, entry, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.release(key, entry, true) })
	}, nil
}

func (m *MemoryLocker) release(key string, entry *memoryEntry, held bool) {
	if held {
		<-entry.ch
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(m.entries, key)
	}
}

// Len reports the number of keys currently tracked.
func (m *MemoryLocker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
