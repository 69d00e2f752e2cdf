package services

import (
	"sync"
	"time"
)

// rateLimitRecord tracks one fixed window for a key
type rateLimitRecord struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a fixed-window per-key request counter. It is owned
// explicitly: construct one in main (or per test) and pass it into the
// services that need it. The table lives only in process memory.
//
// This is a fixed window, not a sliding one: a burst straddling the
// window boundary can briefly exceed the per-window budget.
type RateLimiter struct {
	mu      sync.Mutex
	records map[string]*rateLimitRecord
	now     func() time.Time
	done    chan struct{}
	stopped sync.Once
}

// DefaultSweepInterval is how often expired records are evicted. The
// sweep is housekeeping only: an unswept expired record is still
// handled correctly by the inline reset check on next access.
const DefaultSweepInterval = 5 * time.Minute

// NewRateLimiter creates a rate limiter and starts its background sweep
func NewRateLimiter(sweepInterval time.Duration) *RateLimiter {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	rl := &RateLimiter{
		records: make(map[string]*rateLimitRecord),
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go rl.sweepLoop(sweepInterval)
	return rl
}

// Allow reports whether the request identified by key fits within
// maxRequests per window. The first call in a window always succeeds
// (provided maxRequests >= 1).
func (rl *RateLimiter) Allow(key string, maxRequests int, window time.Duration) bool {
	if maxRequests <= 0 {
		return false
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rec, ok := rl.records[key]
	if !ok || now.After(rec.resetTime) {
		rl.records[key] = &rateLimitRecord{count: 1, resetTime: now.Add(window)}
		return true
	}

	if rec.count >= maxRequests {
		return false
	}
	rec.count++
	return true
}

// Stop terminates the background sweep. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopped.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, rec := range rl.records {
		if now.After(rec.resetTime) {
			delete(rl.records, key)
		}
	}
}
