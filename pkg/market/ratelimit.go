package market

import (
	"context"
	"sync"
	"time"
)

// SlidingLimiter admits at most maxRequests per window. When the window is
// exhausted, Wait blocks until the oldest request ages out and then proceeds;
// a saturated limiter delays callers, it never rejects them. Concurrent
// callers serialize through the same window state, so a racing in-flight
// request can transiently over-count by one, which is acceptable here.
type SlidingLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	stamps      []time.Time
	nowFn       func() time.Time
}

// NewSlidingLimiter constructs a limiter for maxRequests per window.
// Non-positive arguments produce a limiter that admits everything.
func NewSlidingLimiter(maxRequests int, window time.Duration) *SlidingLimiter {
	return &SlidingLimiter{
		maxRequests: maxRequests,
		window:      window,
		nowFn:       time.Now,
	}
}

// Wait blocks until a request slot is available or ctx is done. The slot is
// consumed on return.
func (l *SlidingLimiter) Wait(ctx context.Context) error {
	if l == nil || l.maxRequests <= 0 || l.window <= 0 {
		return nil
	}
	for {
		delay, ok := l.tryAcquire()
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// tryAcquire records a request stamp if the window has room. Otherwise it
// returns how long until the oldest stamp leaves the window.
func (l *SlidingLimiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	cutoff := now.Add(-l.window)
	kept := l.stamps[:0]
	for _, s := range l.stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	l.stamps = kept

	if len(l.stamps) < l.maxRequests {
		l.stamps = append(l.stamps, now)
		return 0, true
	}
	return l.stamps[0].Sub(cutoff), false
}

// Pending returns the number of requests currently counted in the window.
func (l *SlidingLimiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	cutoff := now.Add(-l.window)
	n := 0
	for _, s := range l.stamps {
		if s.After(cutoff) {
			n++
		}
	}
	return n
}
