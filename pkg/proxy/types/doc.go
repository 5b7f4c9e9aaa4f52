// Package types defines the OpenAI-compatible request and response types
// exposed by the proxy.
//
// # Core Types
//
// Request types:
//   - ChatCompletionRequest: request body for /v1/chat/completions
//   - CompletionRequest: request body for /v1/completions
//   - Message: one message of a conversation
//   - StopSequences: the "stop" field, accepted as a string or an array
//   - Prompt: the completion "prompt" field, accepted as a string or an array
//
// Response types:
//   - ChatCompletionResponse and ChatChoice
//   - CompletionResponse and CompletionChoice
//   - LogProbs: per-token log probabilities in the legacy completions shape
//   - Usage: token usage statistics (always zero, see below)
//
// Error types:
//   - ErrorResponse: OpenAI-compatible error envelope
//   - ErrorDetail: message, type, param and code
//
// # Usage Accounting
//
// The backend vocabulary is not available to the proxy, so prompt and
// completion token counts are reported as zero. Clients that need exact
// accounting must count tokens themselves.
//
// # Backend Extensions
//
// Both request types accept an extra body field, llamacpp_proxy_grammar,
// holding a GBNF grammar that is forwarded to llama.cpp unchanged. With the
// OpenAI Python SDK it is passed through extra_body:
//
//	client.completions.create(
//	    model="local",
//	    prompt="Answer yes or no:",
//	    extra_body={"llamacpp_proxy_grammar": 'root ::= "yes" | "no"'},
//	)
package types
