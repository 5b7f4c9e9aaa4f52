// Package llamacpp speaks the native llama.cpp server completion protocol.
//
// Requests are posted to {base}/completions. Non-streaming responses are a
// single JSON object (or an array of them for batched prompts):
//
//	{"content": "Hello", "stop_type": "eos", "truncated": false,
//	 "completion_probabilities": [{"token": "Hello", "logprob": -0.2,
//	     "top_logprobs": [{"token": "Hello", "logprob": -0.2}]}]}
//
// Streaming responses are server-sent events, one "data: {...}" line per
// generated chunk. Stream hands these lines out unparsed; framing them for
// OpenAI clients is the caller's concern.
//
// Both the current probability format shown above and the legacy
// {"content", "probs": [{"tok_str", "prob"}]} format are decoded into
// TokenProb, with legacy probabilities converted to natural logarithms.
package llamacpp
