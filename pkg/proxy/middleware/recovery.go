package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/callisto/pkg/proxy"
	"mercator-hq/callisto/pkg/proxy/types"
)

// Recovery recovers from panics in handlers and returns a 500 in the OpenAI
// error format. The panic value and stack go to the log, not the client.
// http.ErrAbortHandler is re-panicked so the server can abort the connection.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "panic in handler",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				errResp := types.NewServerError(
					"An internal error occurred. Please try again later.",
					"internal_error",
				)
				_ = proxy.WriteErrorResponse(w, errResp)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
