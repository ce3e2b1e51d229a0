package game

import "sync"

// KeyedMutex provides per-user mutual exclusion without global contention.
// Every read-modify-write sequence on a user's keys runs under that user's
// lock, so two concurrent commands for the same user cannot interleave
// between read and write.
//
// Locks are never evicted; the user population of an interactive bot is
// small enough that the map stays bounded.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the lock for id and returns the matching unlock func.
func (k *KeyedMutex) Lock(id int64) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
