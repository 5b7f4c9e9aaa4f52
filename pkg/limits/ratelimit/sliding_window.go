package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow is the timestamp log for a single key.
//
// Unlike a bucketed counter it keeps one entry per admitted request, which
// is exact and cheap for the small per-window quotas the proxy enforces.
type SlidingWindow struct {
	window time.Duration
	max    int
	times  []time.Time
	mu     sync.Mutex
}

// NewSlidingWindow creates an empty window admitting at most max requests
// within any trailing period of length window.
func NewSlidingWindow(window time.Duration, max int) *SlidingWindow {
	return &SlidingWindow{
		window: window,
		max:    max,
	}
}

// Admit prunes expired timestamps and, if capacity remains, records now.
func (sw *SlidingWindow) Admit(now time.Time) CheckResult {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.pruneLocked(now)

	if len(sw.times) >= sw.max {
		return CheckResult{
			Allowed:    false,
			Limit:      sw.max,
			Remaining:  0,
			RetryAfter: sw.retryAfterLocked(now),
		}
	}

	sw.times = append(sw.times, now)
	return CheckResult{
		Allowed:   true,
		Limit:     sw.max,
		Remaining: sw.max - len(sw.times),
	}
}

// Count returns the number of requests currently inside the window.
func (sw *SlidingWindow) Count(now time.Time) int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.pruneLocked(now)
	return len(sw.times)
}

// pruneLocked keeps only timestamps with now - t < window.
// Caller must hold the lock.
func (sw *SlidingWindow) pruneLocked(now time.Time) {
	kept := sw.times[:0]
	for _, t := range sw.times {
		if now.Sub(t) < sw.window {
			kept = append(kept, t)
		}
	}
	// Drop references to the pruned tail.
	for i := len(kept); i < len(sw.times); i++ {
		sw.times[i] = time.Time{}
	}
	sw.times = kept
}

// retryAfterLocked returns the time until the oldest entry expires.
// Caller must hold the lock.
func (sw *SlidingWindow) retryAfterLocked(now time.Time) time.Duration {
	if len(sw.times) == 0 {
		return 0
	}
	oldest := sw.times[0]
	for _, t := range sw.times[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}
	d := sw.window - now.Sub(oldest)
	if d < 0 {
		return 0
	}
	return d
}
