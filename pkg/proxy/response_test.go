package proxy

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/callisto/pkg/providers/llamacpp"
	"mercator-hq/callisto/pkg/proxy/types"
)

func TestFinishReason(t *testing.T) {
	tests := []struct {
		truncated bool
		stopType  string
		want      string
	}{
		{true, "", "length"},
		{true, "word", "length"},
		{true, "eos", "length"},
		{true, "limit", "length"},
		{false, "limit", "length"},
		{false, "word", "stop"},
		{false, "eos", "stop"},
		{false, "none", "stop"},
		{false, "", "stop"},
		{false, "something-new", "stop"},
	}

	for _, tt := range tests {
		if got := FinishReason(tt.truncated, tt.stopType); got != tt.want {
			t.Errorf("FinishReason(%v, %q): expected %q, got %q", tt.truncated, tt.stopType, tt.want, got)
		}
	}
}

func sampleProbs() []llamacpp.TokenProb {
	return []llamacpp.TokenProb{
		{
			Token:   "Hel",
			LogProb: -0.1,
			TopLogProbs: []llamacpp.TopProb{
				{Token: "Hel", LogProb: -0.1},
				{Token: "He", LogProb: -2.3},
				{Token: "H", LogProb: -4.0},
			},
		},
		{
			Token:       "lo",
			LogProb:     -0.2,
			TopLogProbs: []llamacpp.TopProb{{Token: "lo", LogProb: -0.2}},
		},
		{
			Token:   "ü!",
			LogProb: -1.0,
			TopLogProbs: []llamacpp.TopProb{
				{Token: "ü!", LogProb: -1.0},
				{Token: "!", LogProb: -1.1},
			},
		},
	}
}

func TestBuildLogProbs(t *testing.T) {
	for _, depth := range []int{0, 1, 2, 5} {
		lp := BuildLogProbs(sampleProbs(), depth)

		n := len(lp.Tokens)
		if n != 3 || len(lp.TokenLogProbs) != n || len(lp.TopLogProbs) != n || len(lp.TextOffset) != n {
			t.Fatalf("depth %d: expected four slices of length 3, got %d/%d/%d/%d",
				depth, len(lp.Tokens), len(lp.TokenLogProbs), len(lp.TopLogProbs), len(lp.TextOffset))
		}

		for i, p := range sampleProbs() {
			want := min(depth, len(p.TopLogProbs))
			if len(lp.TopLogProbs[i]) != want {
				t.Errorf("depth %d token %d: expected %d alternatives, got %d", depth, i, want, len(lp.TopLogProbs[i]))
			}
		}
	}

	lp := BuildLogProbs(sampleProbs(), 2)
	if lp.Tokens[0] != "Hel" || lp.TokenLogProbs[1] != -0.2 {
		t.Errorf("unexpected tokens %v / %v", lp.Tokens, lp.TokenLogProbs)
	}
	if _, ok := lp.TopLogProbs[0]["H"]; ok {
		t.Error("expected third alternative to be dropped at depth 2")
	}
	if lp.TopLogProbs[0]["He"] != -2.3 {
		t.Errorf("expected He=-2.3, got %v", lp.TopLogProbs[0])
	}

	wantOffsets := []int{0, 3, 5}
	for i, want := range wantOffsets {
		if lp.TextOffset[i] != want {
			t.Errorf("offset %d: expected %d, got %d", i, want, lp.TextOffset[i])
		}
	}
}

func TestBuildLogProbs_Empty(t *testing.T) {
	lp := BuildLogProbs([]llamacpp.TokenProb{}, 3)
	raw, err := json.Marshal(lp)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"tokens":[],"token_logprobs":[],"top_logprobs":[],"text_offset":[]}`
	if string(raw) != want {
		t.Errorf("expected %s, got %s", want, raw)
	}
}

func TestFromBackendChat(t *testing.T) {
	resp := FromBackendChat([]llamacpp.Choice{
		{Content: "Hello", StopType: "eos"},
		{Content: "Hel", Truncated: true},
	}, "llama")

	if !strings.HasPrefix(resp.ID, "chatcmpl-") {
		t.Errorf("expected chatcmpl- prefix, got %q", resp.ID)
	}
	if resp.Object != types.ObjectChatCompletion || resp.Model != "llama" {
		t.Errorf("unexpected object/model %q/%q", resp.Object, resp.Model)
	}
	if resp.Created == 0 {
		t.Error("expected created timestamp")
	}
	if len(resp.Choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(resp.Choices))
	}
	if resp.Choices[0].Message.Role != "assistant" || resp.Choices[0].Message.Content != "Hello" {
		t.Errorf("unexpected message %+v", resp.Choices[0].Message)
	}
	if resp.Choices[0].FinishReason != "stop" || resp.Choices[1].FinishReason != "length" {
		t.Errorf("unexpected finish reasons %q/%q", resp.Choices[0].FinishReason, resp.Choices[1].FinishReason)
	}
	if resp.Choices[1].Index != 1 {
		t.Errorf("expected index 1, got %d", resp.Choices[1].Index)
	}
	if resp.Usage != (types.Usage{}) {
		t.Errorf("expected zero usage, got %+v", resp.Usage)
	}
}

func TestFromBackendCompletion(t *testing.T) {
	two := 2
	zero := 0

	tests := []struct {
		name      string
		choices   []llamacpp.Choice
		logprobs  *int
		wantErr   bool
		wantProbs bool
	}{
		{
			name:    "no logprobs requested",
			choices: []llamacpp.Choice{{Content: "x", StopType: "limit"}},
		},
		{
			name:      "logprobs=0 still reports sampled tokens",
			choices:   []llamacpp.Choice{{Content: "Hello", Probabilities: sampleProbs()[:2]}},
			logprobs:  &zero,
			wantProbs: true,
		},
		{
			name:     "logprobs=0 requested but missing",
			choices:  []llamacpp.Choice{{Content: "x"}},
			logprobs: &zero,
			wantErr:  true,
		},
		{
			name:      "logprobs with probabilities",
			choices:   []llamacpp.Choice{{Content: "Hello", Probabilities: sampleProbs()[:2]}},
			logprobs:  &two,
			wantProbs: true,
		},
		{
			name:      "logprobs with empty probabilities",
			choices:   []llamacpp.Choice{{Content: "", Probabilities: []llamacpp.TokenProb{}}},
			logprobs:  &two,
			wantProbs: true,
		},
		{
			name:     "logprobs requested but missing",
			choices:  []llamacpp.Choice{{Content: "Hello"}},
			logprobs: &two,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := FromBackendCompletion(tt.choices, "m", tt.logprobs)
			if tt.wantErr {
				var te *TranslationError
				if !errors.As(err, &te) {
					t.Fatalf("expected TranslationError, got %v", err)
				}
				if HandleError(err).Error.HTTPStatusCode() != http.StatusInternalServerError {
					t.Error("expected translation error to map to 500")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(resp.ID, "cmpl-") || resp.Object != types.ObjectTextCompletion {
				t.Errorf("unexpected id/object %q/%q", resp.ID, resp.Object)
			}
			if got := resp.Choices[0].LogProbs != nil; got != tt.wantProbs {
				t.Errorf("expected logprobs present=%v, got %v", tt.wantProbs, got)
			}
		})
	}
}

func TestCompletionChoice_NullLogProbs(t *testing.T) {
	resp, err := FromBackendCompletion([]llamacpp.Choice{{Content: "x"}}, "m", nil)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := json.Marshal(resp.Choices[0])
	if !strings.Contains(string(raw), `"logprobs":null`) {
		t.Errorf("expected logprobs null, got %s", raw)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteErrorResponse(w, types.NewBadGatewayError("down")); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	var body types.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Message != "down" || body.Error.Code != types.CodeBackendUnavailable {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestBuildLogProbs_LegacyFloor(t *testing.T) {
	var tp llamacpp.TokenProb
	if err := json.Unmarshal([]byte(`{"content":"a","probs":[{"tok_str":"a","prob":0}]}`), &tp); err != nil {
		t.Fatal(err)
	}
	lp := BuildLogProbs([]llamacpp.TokenProb{tp}, 1)
	if math.IsInf(lp.TokenLogProbs[0], 0) {
		t.Fatal("expected finite log probability")
	}
	if _, err := json.Marshal(lp); err != nil {
		t.Errorf("expected marshalable logprobs, got %v", err)
	}
}

func TestFromBackendCompletion_ZeroLogProbs(t *testing.T) {
	zero := 0
	resp, err := FromBackendCompletion([]llamacpp.Choice{{Content: "Hello", Probabilities: sampleProbs()[:2]}}, "m", &zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lp := resp.Choices[0].LogProbs
	if lp == nil {
		t.Fatal("expected logprobs for logprobs=0")
	}
	if len(lp.Tokens) != 2 || lp.Tokens[0] != "Hel" || lp.Tokens[1] != "lo" {
		t.Errorf("expected tokens [Hel lo], got %v", lp.Tokens)
	}
	if lp.TokenLogProbs[0] != -0.1 || lp.TokenLogProbs[1] != -0.2 {
		t.Errorf("expected token logprobs [-0.1 -0.2], got %v", lp.TokenLogProbs)
	}
	for i, top := range lp.TopLogProbs {
		if top == nil || len(top) != 0 {
			t.Errorf("expected empty top_logprobs at %d, got %v", i, top)
		}
	}

	raw, _ := json.Marshal(lp)
	if !strings.Contains(string(raw), `"top_logprobs":[{},{}]`) {
		t.Errorf("expected empty top_logprobs objects, got %s", raw)
	}
}
