package syncer

import "sync"

// keyedLocks serializes sync cycles per collection. A fetch cycle uses
// TryAcquire and is dropped when the collection is already in flight; a
// caller-initiated write uses Acquire and waits its turn instead, so user
// writes are deferred rather than lost.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Acquire blocks until the collection's lock is held.
func (k *keyedLocks) Acquire(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

// TryAcquire returns (release, true) when the lock was free, (nil, false)
// when a cycle for the collection is already in flight.
func (k *keyedLocks) TryAcquire(key string) (func(), bool) {
	m := k.get(key)
	if !m.TryLock() {
		return nil, false
	}
	return m.Unlock, true
}
