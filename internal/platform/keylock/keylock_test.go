// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package keylock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gestaocondominio/portaria/internal/platform/keylock"
)

func TestLockSerializesSameKey(t *testing.T) {
	t.Parallel()

	locks := keylock.New()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			unlock := locks.Lock("auth-1")
			defer unlock()

			// Unsynchronized increment; only the key lock protects it.
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestLockDistinctKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	locks := keylock.New()

	unlockA := locks.Lock("auth-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("auth-b")
		unlockB()
		close(done)
	}()

	// Must complete even though auth-a is still held.
	<-done
}
