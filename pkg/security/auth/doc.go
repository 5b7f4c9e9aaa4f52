/*
Package auth implements the admission gate that every /v1 request passes
before any translation work is done.

The gate recognizes exactly two API keys: an unlimited key that is never
throttled, and a limited key whose requests are counted in a sliding-window
ledger. Any other value is rejected.

# Basic Usage

	ledger := ratelimit.NewLedger(time.Minute, 10)
	gate, err := auth.NewGate(cfg.Auth.UnlimitedKey, cfg.Auth.LimitedKey, ledger)
	if err != nil {
		return err // neither key configured
	}

	mw := auth.NewMiddleware(gate, collector)
	mux.Handle("/v1/", mw.Handle(apiHandler))

# Header Format

The key is read from the Authorization header. A leading "Bearer " is
stripped if present, so both of these are accepted:

	Authorization: Bearer sk-abc123
	Authorization: sk-abc123

# Error Responses

Authentication and quota failures are answered with a plain detail body:

	401 {"detail": "API key required"}
	401 {"detail": "Invalid API key"}
	429 {"detail": "Rate limit exceeded. Maximum 10 requests per 60 seconds."}

429 responses carry a Retry-After header in whole seconds.

# Logging

Rejected keys are logged without their value. Accepted keys appear in logs
only in redacted form (see Key.Redacted).

# Context Integration

The accepted key is stored in the request context:

	if key, ok := auth.GetKey(r.Context()); ok {
		slog.Info("request", "tier", key.Tier)
	}
*/
package auth
