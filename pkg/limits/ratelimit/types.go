package ratelimit

import (
	"fmt"
	"time"
)

// CheckResult describes the state of a key's window after an Admit call.
type CheckResult struct {
	// Allowed indicates if the request was admitted.
	Allowed bool

	// Limit is the configured maximum number of requests per window.
	Limit int

	// Remaining is how many more requests fit in the current window.
	Remaining int

	// RetryAfter is how long until the oldest recorded request leaves the
	// window. Zero when Allowed is true.
	RetryAfter time.Duration
}

// RateLimitError is returned when a key has exhausted its window.
type RateLimitError struct {
	// MaxRequests is the configured quota.
	MaxRequests int

	// Window is the sliding window length.
	Window time.Duration

	// RetryAfter suggests how long to wait before retrying.
	RetryAfter time.Duration
}

// Error returns the client-facing rate limit message.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %d seconds.",
		e.MaxRequests, int(e.Window/time.Second))
}
