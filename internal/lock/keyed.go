// Package lock provides per-key mutual exclusion for a single engine
// instance. Multi-instance deployments use the redis lock instead; the
// capacity check must be serialized at whichever layer is shared.
package lock

import (
	"context"
	"sync"
)

type lockEntry struct {
	ch chan struct{}
	// refs counts holders plus waiters; the entry is dropped from the map
	// when it reaches zero, so the map tracks only live keys.
	refs int
}

// KeyedMutex serializes callers per key. Distinct keys never contend with
// each other, and keys nobody holds or waits on carry no state.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*lockEntry)}
}

// Acquire blocks until the key's lock is held or ctx is done. On success it
// returns a release function that must be called exactly once.
func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			m.unref(key, e)
		}, nil
	case <-ctx.Done():
		m.unref(key, e)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) unref(key string, e *lockEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}

func (m *KeyedMutex) keyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

