package types

// Object names used in responses.
const (
	ObjectChatCompletion = "chat.completion"
	ObjectTextCompletion = "text_completion"
)

// Finish reasons.
const (
	FinishReasonStop   = "stop"
	FinishReasonLength = "length"
)

// ChatCompletionResponse represents an OpenAI-compatible chat completion response.
// This is returned for non-streaming requests.
type ChatCompletionResponse struct {
	// ID is "chatcmpl-" followed by a random UUID.
	ID string `json:"id"`

	// Object is always "chat.completion".
	Object string `json:"object"`

	// Created is the Unix timestamp (seconds since epoch) of when the completion was created.
	Created int64 `json:"created"`

	// Model echoes the requested model.
	Model string `json:"model"`

	// Choices holds one entry per backend result.
	Choices []ChatChoice `json:"choices"`

	// Usage is a zero placeholder.
	Usage Usage `json:"usage"`
}

// ChatChoice represents a single chat completion choice.
type ChatChoice struct {
	Index int `json:"index"`

	// Message is always an assistant message.
	Message Message `json:"message"`

	// FinishReason is "stop" or "length".
	FinishReason string `json:"finish_reason"`
}

// CompletionResponse represents an OpenAI-compatible legacy completion response.
type CompletionResponse struct {
	// ID is "cmpl-" followed by a random UUID.
	ID string `json:"id"`

	// Object is always "text_completion".
	Object string `json:"object"`

	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   Usage              `json:"usage"`
}

// CompletionChoice represents a single legacy completion choice.
type CompletionChoice struct {
	Text  string `json:"text"`
	Index int    `json:"index"`

	// LogProbs is null unless the request asked for logprobs.
	LogProbs *LogProbs `json:"logprobs"`

	FinishReason string `json:"finish_reason"`
}

// LogProbs holds per-token log probabilities. All four slices have the same
// length, one entry per generated token.
type LogProbs struct {
	// Tokens is the text of each generated token.
	Tokens []string `json:"tokens"`

	// TokenLogProbs is the log probability of each generated token.
	TokenLogProbs []float64 `json:"token_logprobs"`

	// TopLogProbs maps the most likely alternatives at each position to
	// their log probabilities.
	TopLogProbs []map[string]float64 `json:"top_logprobs"`

	// TextOffset is the character offset of each token in the generated
	// text, computed as the running length of the preceding tokens.
	TextOffset []int `json:"text_offset"`
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
