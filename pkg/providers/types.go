package providers

import "time"

// ProviderConfig configures an HTTPProvider.
type ProviderConfig struct {
	// Name identifies the backend in logs and metrics.
	Name string

	// BaseURL is the backend root, without a trailing slash.
	BaseURL string

	// Timeout bounds connecting, waiting for response headers, and each gap
	// between reads of the response body. It does not bound a stream's
	// total length.
	Timeout time.Duration

	// MaxIdleConns is the keep-alive pool size.
	MaxIdleConns int

	// IdleConnTimeout closes idle keep-alive connections.
	IdleConnTimeout time.Duration

	// HealthPath is appended to BaseURL by HealthCheck.
	HealthPath string
}

// ProviderHealth is a snapshot of the backend's observed health.
type ProviderHealth struct {
	IsHealthy             bool
	LastCheck             time.Time
	ConsecutiveFailures   int
	LastError             error
	LastSuccessfulRequest time.Time
	TotalRequests         int64
	FailedRequests        int64
}

// Observer receives the outcome of every backend request. Outcome is
// "success", "error" or "status_<code>".
type Observer interface {
	ObserveBackendRequest(backend, outcome string, duration time.Duration)
}
