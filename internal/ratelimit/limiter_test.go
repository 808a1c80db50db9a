package ratelimit_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serroba/record-service-go/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestFixedWindowLimiter(t *testing.T) {
	t.Run("allows requests under limit", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(5, time.Second, ratelimit.WithClock(newFakeClock().Now))

		for range 5 {
			assert.True(t, limiter.Allow())
		}
	})

	t.Run("denies requests over limit", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(3, time.Second, ratelimit.WithClock(newFakeClock().Now))

		for range 3 {
			assert.True(t, limiter.Allow())
		}

		assert.False(t, limiter.Allow(), "4th request should be denied")
		assert.False(t, limiter.Allow(), "denials do not consume the window")
	})

	t.Run("resets after window elapses", func(t *testing.T) {
		clock := newFakeClock()
		limiter := ratelimit.NewFixedWindowLimiter(2, time.Second, ratelimit.WithClock(clock.Now))

		assert.True(t, limiter.Allow())
		assert.True(t, limiter.Allow())

		for range 10 {
			assert.False(t, limiter.Allow())
		}

		clock.Advance(time.Second + time.Millisecond)

		assert.True(t, limiter.Allow(), "should be allowed after window expires")
		assert.Equal(t, int64(1), limiter.Snapshot().Count)
	})

	t.Run("does not reset at exactly the window size", func(t *testing.T) {
		clock := newFakeClock()
		limiter := ratelimit.NewFixedWindowLimiter(1, time.Second, ratelimit.WithClock(clock.Now))

		assert.True(t, limiter.Allow())

		clock.Advance(time.Second)

		assert.False(t, limiter.Allow())
	})

	t.Run("admit admit reject then admit after rollover", func(t *testing.T) {
		clock := newFakeClock()
		limiter := ratelimit.NewFixedWindowLimiter(2, time.Second, ratelimit.WithClock(clock.Now))

		assert.True(t, limiter.Allow()) // t=0.0
		clock.Advance(100 * time.Millisecond)
		assert.True(t, limiter.Allow()) // t=0.1
		clock.Advance(100 * time.Millisecond)
		assert.False(t, limiter.Allow()) // t=0.2
		clock.Advance(900 * time.Millisecond)
		assert.True(t, limiter.Allow()) // t=1.1
	})

	t.Run("admits up to twice the limit across a boundary", func(t *testing.T) {
		clock := newFakeClock()
		limiter := ratelimit.NewFixedWindowLimiter(3, time.Second, ratelimit.WithClock(clock.Now))

		clock.Advance(900 * time.Millisecond)

		for range 3 {
			assert.True(t, limiter.Allow())
		}

		clock.Advance(101 * time.Millisecond)

		for range 3 {
			assert.True(t, limiter.Allow())
		}

		assert.False(t, limiter.Allow())
	})

	t.Run("window start never moves backwards", func(t *testing.T) {
		clock := newFakeClock()
		limiter := ratelimit.NewFixedWindowLimiter(1, time.Second, ratelimit.WithClock(clock.Now))
		start := limiter.Snapshot().Start

		clock.Advance(-5 * time.Second)
		limiter.Allow()

		assert.Equal(t, start, limiter.Snapshot().Start)
	})

	t.Run("allows requests after real window expires", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(2, 50*time.Millisecond)

		for range 2 {
			assert.True(t, limiter.Allow())
		}

		assert.False(t, limiter.Allow(), "should be rate limited")

		time.Sleep(60 * time.Millisecond)

		assert.True(t, limiter.Allow(), "should be allowed after window expires")
	})
}

func TestFixedWindowLimiter_Concurrent(t *testing.T) {
	limiter := ratelimit.NewFixedWindowLimiter(50, time.Hour, ratelimit.WithClock(newFakeClock().Now))

	var (
		admitted atomic.Int64
		wg       sync.WaitGroup
	)

	for range 200 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if limiter.Allow() {
				admitted.Add(1)
			}
		}()
	}

	wg.Wait()

	require.Equal(t, int64(50), admitted.Load())
	assert.Equal(t, int64(50), limiter.Snapshot().Count)
}

func TestWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("remaining never negative", func(t *testing.T) {
		w := ratelimit.Window{Limit: 2, Count: 2, Start: start, Size: time.Second}

		assert.Equal(t, int64(0), w.Remaining())
	})

	t.Run("remaining counts down", func(t *testing.T) {
		w := ratelimit.Window{Limit: 5, Count: 2, Start: start, Size: time.Second}

		assert.Equal(t, int64(3), w.Remaining())
	})

	t.Run("reset is start plus size", func(t *testing.T) {
		w := ratelimit.Window{Limit: 5, Start: start, Size: time.Second}

		assert.Equal(t, start.Add(time.Second), w.Reset())
	})
}
