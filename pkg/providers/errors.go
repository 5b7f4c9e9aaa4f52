package providers

import (
	"fmt"
)

// BackendUnavailableError reports any transport-level failure talking to the
// backend: connection errors, timeouts, non-2xx statuses and failures while
// reading a stream. It is never retried.
type BackendUnavailableError struct {
	// Backend is the name of the backend.
	Backend string

	// StatusCode is the HTTP status code (0 if no response was received).
	StatusCode int

	// Message is the response body for non-2xx statuses, if any.
	Message string

	// Cause is the underlying transport error (if any).
	Cause error
}

// Error implements the error interface.
func (e *BackendUnavailableError) Error() string {
	return "Error communicating with llama.cpp server: " + e.detail()
}

func (e *BackendUnavailableError) detail() string {
	switch {
	case e.Cause != nil:
		return e.Cause.Error()
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("status %d", e.StatusCode)
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error for error chain support.
func (e *BackendUnavailableError) Unwrap() error {
	return e.Cause
}

// ParseError represents a response parsing failure.
// This occurs when the backend returns a 2xx response that is not the
// expected JSON shape.
type ParseError struct {
	// Backend is the name of the backend that returned the malformed response
	Backend string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("backend %q response parse error: %v", e.Backend, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
