package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Default budget for the YNAB API: 200 requests per rolling hour.
const (
	DefaultMaxRequests = 200
	DefaultWindow      = time.Hour
)

// Limiter is a sliding-window request counter. A request is admitted when
// fewer than max requests were admitted during the trailing window.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu         sync.Mutex
	timestamps []time.Time // ascending
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter admitting maxRequests per window.
// It panics if either value is not positive.
func New(maxRequests int, window time.Duration, opts ...Option) *Limiter {
	if maxRequests <= 0 {
		panic(fmt.Sprintf("ratelimit: maxRequests must be positive, got %d", maxRequests))
	}
	if window <= 0 {
		panic(fmt.Sprintf("ratelimit: window must be positive, got %s", window))
	}
	l := &Limiter{
		max:        maxRequests,
		window:     window,
		now:        time.Now,
		timestamps: make([]time.Time, 0, maxRequests),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewDefault creates a limiter with DefaultMaxRequests per DefaultWindow.
func NewDefault(opts ...Option) *Limiter {
	return New(DefaultMaxRequests, DefaultWindow, opts...)
}

// Allow reports whether a request may proceed now and, if so, records it.
// Pruning, counting and recording happen under one lock so concurrent callers
// can never overshoot the limit.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now.Add(-l.window))

	if len(l.timestamps) >= l.max {
		return false
	}
	l.timestamps = append(l.timestamps, now)
	return true
}

// Remaining returns how many requests would still be admitted right now.
// It does not modify the recorded history.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	active := len(l.timestamps) - l.expired(cutoff)
	return max(0, l.max-active)
}

// Max returns the configured number of requests per window.
func (l *Limiter) Max() int { return l.max }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// prune drops timestamps older than cutoff. Caller holds mu.
func (l *Limiter) prune(cutoff time.Time) {
	n := l.expired(cutoff)
	if n == 0 {
		return
	}
	l.timestamps = append(l.timestamps[:0], l.timestamps[n:]...)
}

// expired counts leading timestamps strictly before cutoff. Caller holds mu.
func (l *Limiter) expired(cutoff time.Time) int {
	n := 0
	for n < len(l.timestamps) && l.timestamps[n].Before(cutoff) {
		n++
	}
	return n
}
