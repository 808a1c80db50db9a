package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for request admission.
type Limiter interface {
	// Allow reports whether the current request is admitted.
	Allow() bool
}

// Clock returns the current time.
type Clock func() time.Time

// Window is a point-in-time view of the limiter state.
type Window struct {
	Limit int64
	Count int64
	Start time.Time
	Size  time.Duration
}

// Remaining returns how many requests the window still admits.
func (w Window) Remaining() int64 {
	if w.Count >= w.Limit {
		return 0
	}

	return w.Limit - w.Count
}

// Reset returns the earliest time at which the window can roll over.
func (w Window) Reset() time.Time {
	return w.Start.Add(w.Size)
}

// FixedWindowLimiter admits at most limit requests per fixed window shared by all callers.
// Up to twice the limit may be admitted across a window boundary.
type FixedWindowLimiter struct {
	mu          sync.Mutex
	limit       int64
	window      time.Duration
	count       int64
	windowStart time.Time
	now         Clock
}

// Option configures a FixedWindowLimiter.
type Option func(*FixedWindowLimiter)

// WithClock replaces the time source, mainly for tests.
func WithClock(clock Clock) Option {
	return func(l *FixedWindowLimiter) {
		l.now = clock
	}
}

// NewFixedWindowLimiter creates a new fixed window rate limiter.
func NewFixedWindowLimiter(limit int64, window time.Duration, opts ...Option) *FixedWindowLimiter {
	l := &FixedWindowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.windowStart = l.now()

	return l
}

func (l *FixedWindowLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// Overflow from the previous window is discarded, not carried.
	if now.Sub(l.windowStart) > l.window {
		l.count = 0
		l.windowStart = now
	}

	if l.count < l.limit {
		l.count++

		return true
	}

	return false
}

// Snapshot returns the current window state.
func (l *FixedWindowLimiter) Snapshot() Window {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Window{
		Limit: l.limit,
		Count: l.count,
		Start: l.windowStart,
		Size:  l.window,
	}
}
