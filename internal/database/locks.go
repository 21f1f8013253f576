package database

import "sync"

// KeyedMutex serializes operations per key. Attendance and enrollment use
// it keyed by employee ID so that two simultaneous check-ins for the same
// person resolve to exactly one success while different people proceed in
// parallel. Locks are never evicted; the key space is bounded by the
// number of employees.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for a key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
