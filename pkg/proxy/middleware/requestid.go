package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"mercator-hq/callisto/pkg/proxy"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// maxRequestIDLength caps caller-supplied request IDs.
const maxRequestIDLength = 128

// RequestID assigns each request an ID, adds it to the context and echoes it
// in the X-Request-ID response header. A valid caller-supplied ID is reused.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(proxy.RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}

		w.Header().Set(proxy.RequestIDHeader, requestID)
		ctx := logging.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validRequestID rejects empty, oversized and non-printable IDs so that
// callers cannot inject control characters into logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
