// Package proxy translates between the OpenAI chat and completion API and
// the native llama.cpp completion protocol.
//
// # Request Direction
//
// ParseChatRequest and ParseCompletionRequest decode and validate request
// bodies. Parameters llama.cpp cannot honor are rejected rather than
// dropped:
//
//	{"error": {"message": "Parameter echo is not supported",
//	           "type": "invalid_request_error", "param": "echo",
//	           "code": "parameter_not_supported"}}
//
// ToBackendChat and ToBackendCompletion then build the llama.cpp request:
//
//	OpenAI              llama.cpp
//	max_tokens          n_predict
//	stop (str | [str])  stop ([str])
//	logprobs            n_probs
//	llamacpp_proxy_grammar  grammar
//
// # Response Direction
//
// FromBackendChat and FromBackendCompletion reshape llama.cpp choices.
// The finish reason is inferred by FinishReason:
//
//	truncated            -> "length"
//	stop_type "limit"    -> "length"
//	stop_type "word"/"eos" -> "stop"
//	anything else        -> "stop"
//
// Token counts in usage are always zero; the proxy does not tokenize.
//
// # Streaming
//
// Streaming responses are not parsed. FrameStream passes the backend's
// "data: " lines through, each followed by a blank line, and drops
// everything else:
//
//	for frame, err := range proxy.FrameStream(ctx, stream.Lines()) {
//	    if err != nil {
//	        break
//	    }
//	    io.WriteString(w, frame)
//	    flusher.Flush()
//	}
//
// # Error Handling
//
// HandleError maps every post-admission failure onto the OpenAI error
// envelope:
//
//	*RequestError                      400 invalid_request_error
//	*prompt.TemplateError              400 invalid_request_error (template_error)
//	*providers.BackendUnavailableError 502 bad_gateway
//	*providers.ParseError              500 server_error (translation_error)
//	*TranslationError                  500 server_error (translation_error)
package proxy
