// Package lock provides per-key mutual exclusion.
package lock

import (
	"context"
	"sync"
)

// KeyedMutex serializes work per key while letting different keys proceed in
// parallel. Entries are reference counted and dropped once no goroutine holds
// or waits on them, so the map only grows with active keys.
type KeyedMutex[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{
		entries: make(map[K]*entry),
	}
}

// Lock blocks until the lock for key is held or ctx is done. On success it
// returns the function that releases the lock; calling it more than once is
// harmless.
func (km *KeyedMutex[K]) Lock(ctx context.Context, key K) (unlock func(), err error) {
	km.mu.Lock()
	e, ok := km.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		km.entries[key] = e
	}
	e.refs++
	km.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		km.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			km.release(key, e)
		})
	}, nil
}

func (km *KeyedMutex[K]) release(key K, e *entry) {
	km.mu.Lock()
	defer km.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(km.entries, key)
	}
}

// Len returns the number of keys currently held or waited on.
func (km *KeyedMutex[K]) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.entries)
}
