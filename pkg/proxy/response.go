package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"mercator-hq/callisto/pkg/providers/llamacpp"
	"mercator-hq/callisto/pkg/proxy/types"
)

// TranslationError reports a backend response that lacks data the proxy
// needs to build the client response, such as probabilities that were
// requested but not returned.
type TranslationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *TranslationError) Error() string {
	return fmt.Sprintf("backend response missing %s: %s", e.Field, e.Message)
}

// FinishReason infers the OpenAI finish reason from a llama.cpp choice.
// Truncation wins over the stop type; an unknown or empty stop type is
// reported as "stop".
func FinishReason(truncated bool, stopType string) string {
	if truncated {
		return types.FinishReasonLength
	}
	switch stopType {
	case llamacpp.StopTypeLimit:
		return types.FinishReasonLength
	case llamacpp.StopTypeWord, llamacpp.StopTypeEOS:
		return types.FinishReasonStop
	default:
		return types.FinishReasonStop
	}
}

// BuildLogProbs rebuilds OpenAI logprobs from llama.cpp probability records.
// Each position keeps at most depth alternatives, taken in backend order.
// Text offsets count characters of the preceding tokens and are not checked
// against the generated text.
func BuildLogProbs(probs []llamacpp.TokenProb, depth int) *types.LogProbs {
	lp := &types.LogProbs{
		Tokens:        make([]string, 0, len(probs)),
		TokenLogProbs: make([]float64, 0, len(probs)),
		TopLogProbs:   make([]map[string]float64, 0, len(probs)),
		TextOffset:    make([]int, 0, len(probs)),
	}
	if depth < 0 {
		depth = 0
	}

	offset := 0
	for _, p := range probs {
		n := min(depth, len(p.TopLogProbs))
		top := make(map[string]float64, n)
		for _, alt := range p.TopLogProbs[:n] {
			top[alt.Token] = alt.LogProb
		}

		lp.Tokens = append(lp.Tokens, p.Token)
		lp.TokenLogProbs = append(lp.TokenLogProbs, p.LogProb)
		lp.TopLogProbs = append(lp.TopLogProbs, top)
		lp.TextOffset = append(lp.TextOffset, offset)
		offset += utf8.RuneCountInString(p.Token)
	}
	return lp
}

// FromBackendChat converts llama.cpp choices into a chat completion response.
func FromBackendChat(choices []llamacpp.Choice, model string) *types.ChatCompletionResponse {
	resp := &types.ChatCompletionResponse{
		ID:      newResponseID("chatcmpl"),
		Object:  types.ObjectChatCompletion,
		Created: time.Now().Unix(),
		Model:   model,
		Choices: make([]types.ChatChoice, len(choices)),
	}
	for i, c := range choices {
		resp.Choices[i] = types.ChatChoice{
			Index: i,
			Message: types.Message{
				Role:    "assistant",
				Content: c.Content,
			},
			FinishReason: FinishReason(c.Truncated, c.StopType),
		}
	}
	return resp
}

// FromBackendCompletion converts llama.cpp choices into a legacy completion
// response. When logprobs is set, including 0, every choice must carry
// probability records; a choice without them is a *TranslationError.
// logprobs=0 yields the sampled tokens' logprobs with empty top_logprobs.
func FromBackendCompletion(choices []llamacpp.Choice, model string, logprobs *int) (*types.CompletionResponse, error) {
	wantProbs := logprobs != nil

	resp := &types.CompletionResponse{
		ID:      newResponseID("cmpl"),
		Object:  types.ObjectTextCompletion,
		Created: time.Now().Unix(),
		Model:   model,
		Choices: make([]types.CompletionChoice, len(choices)),
	}
	for i, c := range choices {
		choice := types.CompletionChoice{
			Text:         c.Content,
			Index:        i,
			FinishReason: FinishReason(c.Truncated, c.StopType),
		}
		if wantProbs {
			if c.Probabilities == nil {
				return nil, &TranslationError{
					Field:   "completion_probabilities",
					Message: fmt.Sprintf("logprobs=%d was requested but choice %d has no probabilities", *logprobs, i),
				}
			}
			choice.LogProbs = BuildLogProbs(c.Probabilities, *logprobs)
		}
		resp.Choices[i] = choice
	}
	return resp, nil
}

func newResponseID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// WriteJSONResponse writes a JSON response to the HTTP response writer.
// It sets the appropriate content-type header and handles marshaling errors.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteErrorResponse writes an OpenAI-compatible error response.
// It extracts the appropriate HTTP status code from the error type.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, errResp.Error.HTTPStatusCode(), errResp)
}

// SetSSEHeaders prepares w for a server-sent event stream.
func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}
