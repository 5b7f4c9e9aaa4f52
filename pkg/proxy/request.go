package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/callisto/pkg/proxy/types"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (10MB).
	MaxRequestBodySize = 10 * 1024 * 1024

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"
)

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an OpenAI-compatible error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}

func unsupported(param string) *RequestError {
	return &RequestError{
		Message: fmt.Sprintf("Parameter %s is not supported", param),
		Code:    types.CodeParameterNotSupported,
		Param:   param,
	}
}

// ParseChatRequest decodes and validates a chat completion request body.
//
// The request body is limited to MaxRequestBodySize to prevent memory exhaustion.
func ParseChatRequest(r *http.Request) (*types.ChatCompletionRequest, error) {
	var req types.ChatCompletionRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if err := ValidateChatRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ParseCompletionRequest decodes and validates a legacy completion request body.
func ParseCompletionRequest(r *http.Request) (*types.CompletionRequest, error) {
	var req types.CompletionRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if err := ValidateCompletionRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	// Read one byte past the limit so that an oversized body is detectable.
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if len(body) > MaxRequestBodySize {
		return &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", MaxRequestBodySize),
			Code:    types.CodeRequestTooLarge,
			Param:   "body",
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}
	return nil
}

// ValidateChatRequest checks the fields the backend depends on.
func ValidateChatRequest(req *types.ChatCompletionRequest) error {
	if req.N != nil && *req.N != 1 {
		return &RequestError{
			Message: "Only n=1 is supported",
			Code:    types.CodeParameterNotSupported,
			Param:   "n",
		}
	}

	if req.Messages == nil {
		return &RequestError{
			Message: "messages is required",
			Code:    types.CodeMissingField,
			Param:   "messages",
		}
	}

	for i, msg := range req.Messages {
		if msg.Role == "" {
			return &RequestError{
				Message: fmt.Sprintf("messages[%d].role is required", i),
				Code:    types.CodeMissingField,
				Param:   fmt.Sprintf("messages[%d].role", i),
			}
		}
	}

	if req.MaxTokens != nil && *req.MaxTokens < 0 {
		return &RequestError{
			Message: "max_tokens must not be negative",
			Code:    types.CodeInvalidValue,
			Param:   "max_tokens",
		}
	}

	return nil
}

// ValidateCompletionRequest rejects parameters llama.cpp cannot honor.
// Checks run in a fixed order and the first violation is returned: n, then
// echo, suffix, best_of and logit_bias, then the shape of prompt.
func ValidateCompletionRequest(req *types.CompletionRequest) error {
	if req.N != nil && *req.N != 1 {
		return &RequestError{
			Message: "Only n=1 is supported",
			Code:    types.CodeParameterNotSupported,
			Param:   "n",
		}
	}

	if req.Echo != nil {
		return unsupported("echo")
	}
	if req.Suffix != nil {
		return unsupported("suffix")
	}
	if req.BestOf != nil {
		return unsupported("best_of")
	}
	if req.LogitBias != nil {
		return unsupported("logit_bias")
	}

	switch {
	case req.Prompt == nil:
		return &RequestError{
			Message: "prompt is required",
			Code:    types.CodeMissingField,
			Param:   "prompt",
		}
	case len(req.Prompt) == 0:
		return &RequestError{
			Message: "prompt must not be an empty array",
			Code:    types.CodeInvalidValue,
			Param:   "prompt",
		}
	case len(req.Prompt) > 1:
		return &RequestError{
			Message: "Only a single prompt is supported",
			Code:    types.CodeParameterNotSupported,
			Param:   "prompt",
		}
	}

	if req.LogProbs != nil && *req.LogProbs < 0 {
		return &RequestError{
			Message: "logprobs must not be negative",
			Code:    types.CodeInvalidValue,
			Param:   "logprobs",
		}
	}

	if req.MaxTokens != nil && *req.MaxTokens < 0 {
		return &RequestError{
			Message: "max_tokens must not be negative",
			Code:    types.CodeInvalidValue,
			Param:   "max_tokens",
		}
	}

	return nil
}
