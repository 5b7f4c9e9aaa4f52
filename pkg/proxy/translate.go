package proxy

import (
	"mercator-hq/callisto/pkg/providers/llamacpp"
	"mercator-hq/callisto/pkg/proxy/types"
)

// Sampling defaults applied when the client leaves a field unset.
const (
	DefaultTemperature         = 0.7
	DefaultTopP                = 1.0
	DefaultCompletionMaxTokens = 16
)

// ToBackendChat builds the llama.cpp request for a chat completion. prompt
// is the rendered chat template.
func ToBackendChat(req *types.ChatCompletionRequest, prompt string) llamacpp.Request {
	return llamacpp.Request{
		Prompt:           prompt,
		NPredict:         req.MaxTokens,
		Stop:             normalizeStop(req.Stop),
		Grammar:          req.Grammar,
		Temperature:      floatOr(req.Temperature, DefaultTemperature),
		TopP:             floatOr(req.TopP, DefaultTopP),
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
		Stream:           req.Stream,
	}
}

// ToBackendCompletion builds the llama.cpp request for a legacy completion.
// The request must have passed ValidateCompletionRequest, so Prompt holds
// exactly one element.
func ToBackendCompletion(req *types.CompletionRequest) llamacpp.Request {
	var prompt string
	if len(req.Prompt) > 0 {
		prompt = req.Prompt[0]
	}

	maxTokens := DefaultCompletionMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	return llamacpp.Request{
		Prompt:           prompt,
		NPredict:         &maxTokens,
		Stop:             normalizeStop(req.Stop),
		NProbs:           backendNProbs(req.LogProbs),
		Grammar:          req.Grammar,
		Temperature:      floatOr(req.Temperature, DefaultTemperature),
		TopP:             floatOr(req.TopP, DefaultTopP),
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
		Stream:           req.Stream,
	}
}

// normalizeStop returns the stop sequences as a plain slice, nil when absent.
// Decoding already turned a bare string into a one-element slice.
func normalizeStop(stop types.StopSequences) []string {
	if stop == nil {
		return nil
	}
	out := make([]string, len(stop))
	copy(out, stop)
	return out
}

// backendNProbs maps OpenAI logprobs onto llama.cpp n_probs. llama.cpp only
// reports the sampled token's probability when n_probs is positive, so
// logprobs=0 still asks for one alternative; the response drops it again.
func backendNProbs(logprobs *int) *int {
	if logprobs == nil {
		return nil
	}
	n := max(*logprobs, 1)
	return &n
}

func floatOr(v *float64, def float64) *float64 {
	if v != nil {
		f := *v
		return &f
	}
	return &def
}
