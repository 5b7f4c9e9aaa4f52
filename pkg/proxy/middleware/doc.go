// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
// The server wraps every route in the same chain, outermost first:
//
//	handler = Chain(mux, Recovery(logger), RequestID, Tracing(tracer), Logging(logger))
//
//  1. Recovery: turn panics into a 500 in the OpenAI error format
//  2. RequestID: honor or generate X-Request-ID
//  3. Tracing: extract the caller's traceparent and open a server span
//  4. Logging: access log with status and latency
//
// API key checks live in pkg/security/auth and are applied only to /v1
// routes, inside this chain.
//
// # Request ID
//
// RequestID accepts a caller-supplied X-Request-ID of up to 128 printable
// ASCII characters and otherwise generates a UUID v4:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// The ID is echoed in the response header and stored in the context, where
// the logging handler picks it up for every record.
//
// # Streaming
//
// The response writer wrapper used by Logging implements http.Flusher and
// Unwrap, so server-sent events flush through it unchanged.
package middleware
