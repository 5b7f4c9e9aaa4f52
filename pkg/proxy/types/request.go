package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChatCompletionRequest represents an OpenAI-compatible chat completion request.
type ChatCompletionRequest struct {
	// Model is echoed back in the response; the backend serves a single model.
	Model string `json:"model"`

	// Messages is the conversation history, rendered into one prompt by the
	// chat template.
	Messages []Message `json:"messages"`

	// Temperature controls randomness in the response.
	// Optional, defaults to 0.7.
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP controls nucleus sampling.
	// Optional, defaults to 1.0.
	TopP *float64 `json:"top_p,omitempty"`

	// N is the number of choices to generate. Only 1 is supported.
	N *int `json:"n,omitempty"`

	// Stream enables server-sent events (SSE) streaming.
	Stream bool `json:"stream,omitempty"`

	// Stop lists sequences where generation stops.
	Stop StopSequences `json:"stop,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	// Optional, unlimited by default.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// PresencePenalty penalizes tokens already present in the text.
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`

	// FrequencyPenalty penalizes tokens by their frequency in the text.
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`

	// User is accepted for compatibility and ignored.
	User string `json:"user,omitempty"`

	// Grammar is a GBNF grammar forwarded to the backend verbatim.
	Grammar *string `json:"llamacpp_proxy_grammar,omitempty"`
}

// Message represents a single message in a conversation.
type Message struct {
	// Role is the author of the message ("system", "user", "assistant").
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`

	// Name is the name of the author (optional).
	Name string `json:"name,omitempty"`
}

// CompletionRequest represents an OpenAI-compatible legacy completion request.
type CompletionRequest struct {
	Model string `json:"model"`

	// Prompt is a single string or an array with exactly one string.
	Prompt Prompt `json:"prompt"`

	// MaxTokens is the maximum number of tokens to generate.
	// Optional, defaults to 16.
	MaxTokens *int `json:"max_tokens,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	N           *int     `json:"n,omitempty"`
	Stream      bool     `json:"stream,omitempty"`

	// LogProbs requests this many top alternatives per generated token.
	LogProbs *int `json:"logprobs,omitempty"`

	Stop             StopSequences `json:"stop,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`

	// Unsupported parameters. They are decoded only so that validation can
	// reject them by name.
	Echo      *bool              `json:"echo,omitempty"`
	Suffix    *string            `json:"suffix,omitempty"`
	BestOf    *int               `json:"best_of,omitempty"`
	LogitBias map[string]float64 `json:"logit_bias,omitempty"`

	User    string  `json:"user,omitempty"`
	Grammar *string `json:"llamacpp_proxy_grammar,omitempty"`
}

// StopSequences is the "stop" request field. OpenAI accepts either a single
// string or an array of strings; both decode to a slice, and null or an
// absent field decodes to nil.
type StopSequences []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StopSequences) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*s = StopSequences{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("stop must be a string or an array of strings")
	}
	*s = many
	return nil
}

// Prompt is the completion "prompt" field, decoded from a string or an
// array of strings. Token-id arrays are not supported.
type Prompt []string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Prompt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*p = Prompt{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("prompt must be a string or an array of strings")
	}
	if many == nil {
		many = []string{}
	}
	*p = many
	return nil
}
