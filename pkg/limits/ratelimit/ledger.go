package ratelimit

import (
	"sync"
	"time"
)

// Ledger maps API keys to their sliding windows.
//
// The map itself is guarded by a mutex that is only held while looking up
// or creating a key's window; the quota check runs under the window's own
// lock so that different keys never serialize on each other.
type Ledger struct {
	window time.Duration
	max    int
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*SlidingWindow
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates an empty ledger admitting maxRequests per window per key.
func NewLedger(window time.Duration, maxRequests int, opts ...Option) *Ledger {
	l := &Ledger{
		window:  window,
		max:     maxRequests,
		now:     time.Now,
		windows: make(map[string]*SlidingWindow),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit records a request for key, or returns *RateLimitError when the key
// already has MaxRequests requests inside the trailing window. A rejected
// attempt is not recorded.
func (l *Ledger) Admit(key string) error {
	res := l.Check(key)
	if !res.Allowed {
		return &RateLimitError{
			MaxRequests: l.max,
			Window:      l.window,
			RetryAfter:  res.RetryAfter,
		}
	}
	return nil
}

// Check is Admit returning the full result instead of an error.
func (l *Ledger) Check(key string) CheckResult {
	return l.windowFor(key).Admit(l.now())
}

// Count returns the number of requests key has inside the current window.
func (l *Ledger) Count(key string) int {
	l.mu.Lock()
	sw, ok := l.windows[key]
	l.mu.Unlock()
	if !ok {
		return 0
	}
	return sw.Count(l.now())
}

func (l *Ledger) windowFor(key string) *SlidingWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	sw, ok := l.windows[key]
	if !ok {
		sw = NewSlidingWindow(l.window, l.max)
		l.windows[key] = sw
	}
	return sw
}
