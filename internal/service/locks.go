package service

import "sync"

// Locks serializes account mutations per user so progression checks
// always run against a consistent snapshot. One instance is shared by every
// service that mutates user state.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *Locks) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// inflight tracks one running generation per (user, tool) so the same tool
// cannot run concurrently for one user while independent tools never block
// each other.
type inflight struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{running: make(map[string]struct{})}
}

// Begin claims the slot, or reports false when it is already taken.
func (f *inflight) Begin(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.running[key]; ok {
		return false
	}
	f.running[key] = struct{}{}
	return true
}

func (f *inflight) End(key string) {
	f.mu.Lock()
	delete(f.running, key)
	f.mu.Unlock()
}
