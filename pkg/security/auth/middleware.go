package auth

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"mercator-hq/callisto/pkg/limits/ratelimit"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// Client-facing detail strings.
const (
	detailMissingKey = "API key required"
	detailInvalidKey = "Invalid API key"
)

// Middleware is HTTP middleware that runs Authorize and Admit on every request.
type Middleware struct {
	gate     *Gate
	recorder Recorder
}

// NewMiddleware creates the admission middleware. recorder may be nil.
func NewMiddleware(gate *Gate, recorder Recorder) *Middleware {
	return &Middleware{
		gate:     gate,
		recorder: recorder,
	}
}

// Handle wraps an HTTP handler with API key authentication and rate limiting.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())

		key, err := m.gate.Authorize(r.Header.Get("Authorization"))
		if err != nil {
			reason := "invalid"
			detail := detailInvalidKey
			if errors.Is(err, ErrMissingKey) {
				reason = "missing"
				detail = detailMissingKey
			}

			// The presented value is never logged.
			logger.WarnContext(r.Context(), "API key rejected",
				"reason", reason,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			if m.recorder != nil {
				m.recorder.RecordAuthFailure(reason)
			}

			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, detail)
			return
		}

		if err := m.gate.Admit(key); err != nil {
			var rle *ratelimit.RateLimitError
			if !errors.As(err, &rle) {
				logger.ErrorContext(r.Context(), "admission failed", "error", err)
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			logger.WarnContext(r.Context(), "rate limit exceeded",
				"key", key.Redacted(),
				"tier", key.Tier,
				"retry_after", rle.RetryAfter,
				"path", r.URL.Path,
			)
			if m.recorder != nil {
				m.recorder.RecordRateLimited(string(key.Tier))
			}

			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rle.RetryAfter.Seconds()))))
			writeDetail(w, http.StatusTooManyRequests, rle.Error())
			return
		}

		logger.DebugContext(r.Context(), "API key authenticated",
			"tier", key.Tier,
			"path", r.URL.Path,
		)

		next.ServeHTTP(w, r.WithContext(WithKey(r.Context(), key)))
	})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// Context key for the authenticated key
type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const apiKeyKey contextKey = "api_key"

// WithKey returns a copy of ctx carrying k.
func WithKey(ctx context.Context, k Key) context.Context {
	return context.WithValue(ctx, apiKeyKey, k)
}

// GetKey retrieves the authenticated key from request context.
func GetKey(ctx context.Context) (Key, bool) {
	k, ok := ctx.Value(apiKeyKey).(Key)
	return k, ok
}
