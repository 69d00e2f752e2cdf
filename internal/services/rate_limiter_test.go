package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestLimiter returns a limiter with a controllable clock and no
// background sweep racing the test
func newTestLimiter(t *testing.T) (*RateLimiter, *time.Time) {
	t.Helper()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(time.Hour)
	rl.now = func() time.Time { return current }
	t.Cleanup(rl.Stop)
	return rl, &current
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("single budget allows exactly once per window", func(t *testing.T) {
		rl, clock := newTestLimiter(t)

		assert.True(t, rl.Allow("k", 1, time.Minute))
		assert.False(t, rl.Allow("k", 1, time.Minute))
		assert.False(t, rl.Allow("k", 1, time.Minute))

		*clock = clock.Add(61 * time.Second)
		assert.True(t, rl.Allow("k", 1, time.Minute))
		assert.False(t, rl.Allow("k", 1, time.Minute))
	})

	t.Run("twelve of twenty calls pass with budget twelve", func(t *testing.T) {
		rl, _ := newTestLimiter(t)

		var allowed int
		for i := 0; i < 20; i++ {
			if rl.Allow("chat:tour-1:guest-1", 12, time.Minute) {
				allowed++
			} else {
				// Once blocked, every later call in the window is blocked too.
				assert.GreaterOrEqual(t, i, 12)
			}
		}
		assert.Equal(t, 12, allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl, _ := newTestLimiter(t)

		assert.True(t, rl.Allow("a", 1, time.Minute))
		assert.True(t, rl.Allow("b", 1, time.Minute))
		assert.False(t, rl.Allow("a", 1, time.Minute))
	})

	t.Run("zero budget blocks everything", func(t *testing.T) {
		rl, _ := newTestLimiter(t)
		assert.False(t, rl.Allow("k", 0, time.Minute))
	})

	t.Run("window reset starts a fresh count", func(t *testing.T) {
		rl, clock := newTestLimiter(t)

		assert.True(t, rl.Allow("k", 2, time.Minute))
		assert.True(t, rl.Allow("k", 2, time.Minute))
		assert.False(t, rl.Allow("k", 2, time.Minute))

		*clock = clock.Add(2 * time.Minute)
		assert.True(t, rl.Allow("k", 2, time.Minute))
	})
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, clock := newTestLimiter(t)

	rl.Allow("stale", 5, time.Minute)
	rl.Allow("fresh", 5, time.Hour)

	*clock = clock.Add(10 * time.Minute)
	rl.sweep()

	rl.mu.Lock()
	_, staleKept := rl.records["stale"]
	_, freshKept := rl.records["fresh"]
	rl.mu.Unlock()

	assert.False(t, staleKept)
	assert.True(t, freshKept)

	// An expired-but-unswept record is still reset correctly inline.
	assert.True(t, rl.Allow("stale", 5, time.Minute))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	defer rl.Stop()

	const workers = 8
	const perWorker = 50
	results := make(chan bool, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				results <- rl.Allow("shared", 100, time.Hour)
			}
		}()
	}
	wg.Wait()
	close(results)

	var allowed int
	for ok := range results {
		if ok {
			allowed++
		}
	}
	assert.Equal(t, 100, allowed)
}
