// Package providers implements the HTTP transport to the inference backend.
//
// # Overview
//
// HTTPProvider wraps a pooled http.Client with a single generous timeout
// and turns every transport failure into a *BackendUnavailableError. It
// never retries: a failed generation is reported to the caller, and retry
// policy belongs to the client or operator.
//
// The backend-specific wire format lives in sub-packages; llamacpp is the
// only one today.
//
// # Basic Usage
//
//	provider := providers.NewHTTPProvider(providers.ProviderConfig{
//	    Name:    "llamacpp",
//	    BaseURL: "http://localhost:8080",
//	    Timeout: 300 * time.Second,
//	})
//	defer provider.Close()
//
//	resp, err := provider.DoRequest(ctx, http.MethodPost, provider.URL("/completions"), body, nil)
//	if err != nil {
//	    var bue *providers.BackendUnavailableError
//	    if errors.As(err, &bue) {
//	        // 502
//	    }
//	}
//
// # Health
//
// The provider tracks consecutive failures across real requests and
// explicit HealthCheck calls. After three consecutive failures it reports
// itself unhealthy until the next success. Periodic checks are scheduled by
// pkg/telemetry/health rather than by a goroutine owned here.
//
// # Tracing and Metrics
//
// Outbound requests carry the W3C trace context of the caller's span. An
// optional Observer receives the outcome and latency of every request.
package providers
