package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCustomerLocksSerializeSameKey(t *testing.T) {
	locks := newCustomerLocks()

	release := locks.lock(1, "5511999990000")

	acquired := make(chan struct{})
	go func() {
		r := locks.lock(1, "5511999990000")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the lock while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second holder never acquired the lock after release")
	}
}

func TestCustomerLocksDifferentKeysDoNotBlock(t *testing.T) {
	locks := newCustomerLocks()

	release := locks.lock(1, "5511999990000")
	defer release()

	done := make(chan struct{})
	go func() {
		r := locks.lock(2, "5511999990000") // same phone, other tenant
		r()
		r = locks.lock(1, "5511999990001") // same tenant, other phone
		r()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent keys blocked on each other")
	}
}

func TestCustomerLocksEntriesAreReleased(t *testing.T) {
	locks := newCustomerLocks()

	r1 := locks.lock(1, "5511999990000")
	r2 := locks.lock(2, "5511999990001")
	r1()
	r2()

	locks.mu.Lock()
	remaining := len(locks.locks)
	locks.mu.Unlock()
	assert.Equal(t, 0, remaining)
}
