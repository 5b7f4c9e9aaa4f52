package llamacpp

import (
	"encoding/json"
	"fmt"
	"math"
)

// Stop types reported by llama.cpp in the stop_type field.
const (
	StopTypeNone  = "none"
	StopTypeEOS   = "eos"
	StopTypeLimit = "limit"
	StopTypeWord  = "word"
)

// MinLogProb stands in for log(0), which JSON cannot represent.
const MinLogProb = -9999.0

func logProb(p float64) float64 {
	if p <= 0 {
		return MinLogProb
	}
	return math.Max(math.Log(p), MinLogProb)
}

// Request is the body posted to {base}/completions. Optional fields are
// pointers so that absent values are omitted and llama.cpp applies its own
// defaults.
type Request struct {
	Prompt           string   `json:"prompt"`
	NPredict         *int     `json:"n_predict,omitempty"`
	Stop             []string `json:"stop,omitempty"`
	NProbs           *int     `json:"n_probs,omitempty"`
	Grammar          *string  `json:"grammar,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	Stream           bool     `json:"stream"`
}

// Choice is one completion result from llama.cpp.
type Choice struct {
	Content   string `json:"content"`
	StopType  string `json:"stop_type,omitempty"`
	Truncated bool   `json:"truncated"`

	// Probabilities is nil when the backend sent no
	// completion_probabilities field, and non-nil (possibly empty) when it did.
	Probabilities []TokenProb `json:"completion_probabilities,omitempty"`
}

// TokenProb is the probability record for one generated token.
type TokenProb struct {
	Token       string
	LogProb     float64
	TopLogProbs []TopProb
}

// TopProb is one candidate token at a position.
type TopProb struct {
	Token   string
	LogProb float64
}

// wireTokenProb covers both llama.cpp probability formats:
//
//	current: {"token": "Hi", "logprob": -0.1, "top_logprobs": [{"token": "Hi", "logprob": -0.1}]}
//	legacy:  {"content": "Hi", "probs": [{"tok_str": "Hi", "prob": 0.9}]}
type wireTokenProb struct {
	Token       *string `json:"token"`
	LogProb     float64 `json:"logprob"`
	TopLogProbs []struct {
		Token   string  `json:"token"`
		LogProb float64 `json:"logprob"`
	} `json:"top_logprobs"`

	Content *string `json:"content"`
	Probs   []struct {
		TokStr string  `json:"tok_str"`
		Prob   float64 `json:"prob"`
	} `json:"probs"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TokenProb) UnmarshalJSON(data []byte) error {
	var w wireTokenProb
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch {
	case w.Token != nil:
		t.Token = *w.Token
		t.LogProb = w.LogProb
		t.TopLogProbs = make([]TopProb, 0, len(w.TopLogProbs))
		for _, alt := range w.TopLogProbs {
			t.TopLogProbs = append(t.TopLogProbs, TopProb{Token: alt.Token, LogProb: alt.LogProb})
		}

	case w.Content != nil:
		t.Token = *w.Content
		t.TopLogProbs = make([]TopProb, 0, len(w.Probs))
		// A sampled token outside the reported candidates gets the floor.
		t.LogProb = MinLogProb
		found := false
		for _, alt := range w.Probs {
			lp := logProb(alt.Prob)
			t.TopLogProbs = append(t.TopLogProbs, TopProb{Token: alt.TokStr, LogProb: lp})
			if !found && alt.TokStr == t.Token {
				t.LogProb = lp
				found = true
			}
		}

	default:
		return fmt.Errorf("probability record has neither token nor content")
	}

	return nil
}

// MarshalJSON emits the current llama.cpp format.
func (t TokenProb) MarshalJSON() ([]byte, error) {
	type top struct {
		Token   string  `json:"token"`
		LogProb float64 `json:"logprob"`
	}
	tops := make([]top, len(t.TopLogProbs))
	for i, alt := range t.TopLogProbs {
		tops[i] = top{Token: alt.Token, LogProb: alt.LogProb}
	}
	return json.Marshal(struct {
		Token       string  `json:"token"`
		LogProb     float64 `json:"logprob"`
		TopLogProbs []top   `json:"top_logprobs"`
	}{t.Token, t.LogProb, tops})
}
