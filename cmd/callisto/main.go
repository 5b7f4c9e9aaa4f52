// Callisto is an OpenAI-compatible reverse proxy for a llama.cpp server.
//
// It accepts /v1/chat/completions and /v1/completions requests, checks the
// caller's API key against an unlimited and a rate-limited key, renders chat
// messages through a Jinja template and forwards the result to llama.cpp's
// native completion endpoint. Responses are translated back into the OpenAI
// schema, buffered or as server-sent events.
//
// Usage:
//
//	# Start the proxy with flags only
//	UNLIMITED_API_KEY=sk-... callisto serve --llama-server http://localhost:8080 \
//	    --chat-template-jinja ./template.jinja
//
//	# Start from a configuration file
//	callisto serve --config /etc/callisto/config.yaml
//
//	# Check a configuration and its template without starting
//	callisto validate --config config.yaml
//
//	# Generate an API key
//	callisto keys generate
//
//	# Show version information
//	callisto version
package main

func main() {
	Execute()
}
