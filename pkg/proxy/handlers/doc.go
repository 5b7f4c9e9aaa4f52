// Package handlers provides the HTTP endpoints of the proxy.
//
// # Handlers
//
//   - ChatHandler: POST /v1/chat/completions
//   - CompletionHandler: POST /v1/completions
//   - HealthHandler, ReadyHandler: liveness and readiness probes
//
// # Request Flow
//
// Completion handlers run one linear pass per request with no retries:
//
//  1. Parse and validate the body (400 on failure)
//  2. Render messages through the chat template (chat only, 400 on failure)
//  3. Translate to a llama.cpp request
//  4. Call the backend (502 on transport failure)
//  5. Translate the response (500 if the backend broke its contract)
//  6. Write JSON, or relay the event stream
//
// Authorization and rate limiting happen before the handler runs, in the
// auth middleware.
//
// # Streaming
//
// With stream=true the backend's "data: " lines are relayed unchanged, each
// followed by a blank line and flushed immediately. Once the first byte is
// sent a later failure cannot change the status code; the stream simply ends
// and the failure is logged. A client disconnect cancels the request
// context, which closes the backend connection.
//
// # Error Format
//
//	{
//	  "error": {
//	    "message": "Parameter n is not supported",
//	    "type": "invalid_request_error",
//	    "param": "n",
//	    "code": "parameter_not_supported"
//	  }
//	}
package handlers
