package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// RateLimiter is a per-(tenant, sender) rolling-window counter. The window
// resets when it elapses rather than sliding; this is an abuse guard, not
// billing-accurate metering. The mutex keeps increment-and-check atomic
// per key under concurrent deliveries for the same sender.
type RateLimiter struct {
	mu     sync.Mutex
	counts *cache.Cache
	limit  int
	window time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counts: cache.New(window, 2*window),
		limit:  limit,
		window: window,
	}
}

// Allow increments the counter for the key and reports whether the message
// is under the cap for the current window.
func (r *RateLimiter) Allow(tenantID int64, phone string) bool {
	key := fmt.Sprintf("%d:%s", tenantID, phone)

	r.mu.Lock()
	defer r.mu.Unlock()

	n, found := r.counts.Get(key)
	if !found {
		// First message of a fresh window; the cache TTL ends the window.
		r.counts.Set(key, 1, r.window)
		return true
	}

	count := n.(int)
	if count >= r.limit {
		return false
	}
	// Keep the original expiry: re-setting would stretch the window.
	_, err := r.counts.IncrementInt(key, 1)
	if err != nil {
		// Entry expired between Get and Increment; start a new window.
		r.counts.Set(key, 1, r.window)
	}
	return true
}
