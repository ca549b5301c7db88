// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package keylock serializes read-modify-write sequences that share a key.
//
// Check-in and check-out load an authorization, mutate its movement
// history and write the whole row back; two concurrent gate operations on
// the same authorization must not interleave or one history update is
// lost. The lock is scoped per key, so operations on distinct
// authorizations never contend.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyLock hands out one mutex per key, dropping the mutex once no
// goroutine holds or waits on it.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for the key, blocking while another goroutine
// holds it. The returned function releases the mutex and must be called
// exactly once, typically via defer.
func (k *KeyLock) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
