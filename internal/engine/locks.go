package engine

import "sync"

type lockKey struct {
	UserID int64
	WordID int64
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex serializes same-word reviews within one process. Entries are
// reference-counted and removed when the last holder releases, so the map
// never grows with the vocabulary. Cross-instance races are caught by the
// store's version check instead.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[lockKey]*lockEntry
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[lockKey]*lockEntry)}
}

// lock acquires the mutex for the key and returns its release func.
func (k *keyedMutex) lock(key lockKey) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
