package engine

import (
	"fmt"
	"sync"
)

// customerLocks serializes processing per (tenant, phone). Two inbound
// events for the same customer may arrive concurrently; everything that
// reads or writes conversation state or cart contents runs under this
// lock so a racing checkout confirm cannot double-create orders.
type customerLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{locks: map[string]*lockEntry{}}
}

// lock acquires the per-customer mutex and returns the release func.
// Entries are refcounted and removed when the last holder releases, so the
// map does not grow with the customer base.
func (c *customerLocks) lock(tenantID int64, phone string) func() {
	key := fmt.Sprintf("%d:%s", tenantID, phone)

	c.mu.Lock()
	entry, ok := c.locks[key]
	if !ok {
		entry = &lockEntry{}
		c.locks[key] = entry
	}
	entry.refs++
	c.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		c.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}
