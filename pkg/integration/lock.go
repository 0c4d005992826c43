package integration

import (
	"context"
	"sync"
)

// Locker serializes operations on a single key
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (func(), error)
}

// LockKey returns the lock key for a (user, name) pair
func LockKey(userID, name string) string {
	return "integration:" + userID + ":" + name
}

// KeyedMutex is an in-process Locker with one lock per key
type KeyedMutex struct {
	mutex sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates a new in-process locker
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the lock for key
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mutex.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mutex.Unlock()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				k.release(key, l)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
}

// release drops a reference and forgets the key once nobody waits on it
func (k *KeyedMutex) release(key string, l *keyedLock) {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}
