package ranker

import (
	"fmt"
	"sync"
)

// keyedMutex serializes score updates per (user, category) pair so two
// in-flight feedback requests cannot lose each other's read-modify-write.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(userID int64, category string) func() {
	key := fmt.Sprintf("%d/%s", userID, category)

	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()

	return m.Unlock
}
