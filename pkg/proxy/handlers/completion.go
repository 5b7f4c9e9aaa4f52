package handlers

import (
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/proxy"
)

// CompletionHandler serves POST /v1/completions.
type CompletionHandler struct {
	base
}

// NewCompletionHandler creates a completion handler. metrics may be nil.
func NewCompletionHandler(backend Backend, metrics Recorder) *CompletionHandler {
	return &CompletionHandler{base: newBase(backend, metrics)}
}

// ServeHTTP implements http.Handler.
func (h *CompletionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	x := &exchange{endpoint: CompletionsPath, start: time.Now()}

	req, err := proxy.ParseCompletionRequest(r)
	if err != nil {
		h.fail(ctx, w, x, err)
		return
	}
	x.model = req.Model
	x.stream = req.Stream
	ctx = h.begin(ctx, x)

	backendReq := proxy.ToBackendCompletion(req)

	if req.Stream {
		h.relay(ctx, w, x, backendReq)
		return
	}

	x.backendStart = time.Now()
	choices, err := h.backend.Complete(ctx, backendReq)
	if err != nil {
		h.fail(ctx, w, x, err)
		return
	}

	resp, err := proxy.FromBackendCompletion(choices, req.Model, req.LogProbs)
	if err != nil {
		h.fail(ctx, w, x, err)
		return
	}

	finish := ""
	if len(resp.Choices) > 0 {
		finish = resp.Choices[0].FinishReason
	}
	h.respond(ctx, w, x, resp, finish)
}
