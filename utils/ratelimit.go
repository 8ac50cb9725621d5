package utils

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum spacing between outbound requests. The
// last-request time is owned state guarded by a mutex, so concurrent callers
// cannot both observe an expired interval and fire at once.
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a RateLimiter with the given minimum spacing.
// A zero or negative interval disables waiting entirely.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{minInterval: minInterval}
}

// Wait blocks until at least the minimum interval has elapsed since the
// previous call, then records the current time as the new last-request time.
func (r *RateLimiter) Wait() {
	if r.minInterval <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastRequest)
	if elapsed < r.minInterval {
		time.Sleep(r.minInterval - elapsed)
	}
	r.lastRequest = time.Now()
}
