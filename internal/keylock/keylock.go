// Package keylock provides a mutex keyed by an arbitrary comparable value.
//
// The ledger serializes every mutating or cost-computing operation per
// security key: FIFO replay reconstructs state from the whole history, so two
// replays for the same key must never interleave. Different keys are fully
// independent and proceed in parallel.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	// sem is a one-slot semaphore; holding the slot is holding the lock.
	sem  chan struct{}
	refs int
}

// KeyedMutex is a set of mutexes addressed by key. Entries are
// reference-counted and removed once no goroutine holds or waits on them,
// so the internal map stays bounded by live contention, not by the number
// of keys ever seen.
type KeyedMutex[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// New creates an empty KeyedMutex.
func New[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{entries: make(map[K]*entry)}
}

// Acquire blocks until the lock for key is held or ctx is done. It returns
// ctx.Err() on cancellation or deadline expiry; callers translate that into
// their own timeout error.
func (m *KeyedMutex[K]) Acquire(ctx context.Context, key K) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.release(key, e)
		return ctx.Err()
	}
}

// Release unlocks the lock for key. It must only be called after a
// successful Acquire for the same key.
func (m *KeyedMutex[K]) Release(key K) {
	m.mu.Lock()
	e, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		panic("keylock: release of unheld key")
	}

	<-e.sem
	m.release(key, e)
}

func (m *KeyedMutex[K]) release(key K, e *entry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
