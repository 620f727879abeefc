// Package ratelimit bounds external classification calls to a fixed number
// of permits per rolling window.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter grants at most maxPermits acquisitions per sliding window. It
// keeps the timestamps of grants still inside the window; a new grant is
// admitted only while fewer than maxPermits of them remain, so the bound
// holds over every window position, not just aligned ones.
type Limiter struct {
	maxPermits int
	window     time.Duration

	mu     sync.Mutex
	grants []time.Time // grants within the last window, oldest first
}

// New creates a limiter allowing at most maxPermits acquisitions per window.
// Returns an error for non-positive parameters; limiter misconfiguration is
// a fail-fast condition.
func New(maxPermits int, window time.Duration) (*Limiter, error) {
	if maxPermits <= 0 {
		return nil, fmt.Errorf("ratelimit: max permits must be positive, got %d", maxPermits)
	}
	if window <= 0 {
		return nil, fmt.Errorf("ratelimit: window must be positive, got %s", window)
	}
	return &Limiter{
		maxPermits: maxPermits,
		window:     window,
		grants:     make([]time.Time, 0, maxPermits),
	}, nil
}

// Acquire blocks until a permit is available or ctx is done. It cannot fail
// otherwise, only delay. Fairness is first-ready, first-served: every waiter
// recomputes its wait from the live grant log, so none starves while older
// grants keep expiring.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.take()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take records a grant if the window has room. Otherwise it returns how long
// until the oldest in-window grant expires.
func (l *Limiter) take() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.evict(now)

	if len(l.grants) < l.maxPermits {
		l.grants = append(l.grants, now)
		return 0, true
	}

	wait := l.grants[0].Add(l.window).Sub(now)
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait, false
}

// evict drops grants that have aged out of the window.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.grants) && !l.grants[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.grants = append(l.grants[:0], l.grants[i:]...)
	}
}

// Remaining reports how many permits the current window still has, without
// consuming any. Intended for logging and tests.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(time.Now())
	return l.maxPermits - len(l.grants)
}
