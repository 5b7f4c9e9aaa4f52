package handlers

import (
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/proxy"
)

// ChatHandler serves POST /v1/chat/completions.
type ChatHandler struct {
	base
	renderer Renderer
}

// NewChatHandler creates a chat handler. metrics may be nil.
func NewChatHandler(backend Backend, renderer Renderer, metrics Recorder) *ChatHandler {
	return &ChatHandler{
		base:     newBase(backend, metrics),
		renderer: renderer,
	}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	x := &exchange{endpoint: ChatCompletionsPath, start: time.Now()}

	req, err := proxy.ParseChatRequest(r)
	if err != nil {
		h.fail(ctx, w, x, err)
		return
	}
	x.model = req.Model
	x.stream = req.Stream
	ctx = h.begin(ctx, x)

	prompt, err := h.renderer.Render(req.Messages)
	if err != nil {
		h.fail(ctx, w, x, err)
		return
	}

	backendReq := proxy.ToBackendChat(req, prompt)

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

	resp := proxy.FromBackendChat(choices, req.Model)
	finish := ""
	if len(resp.Choices) > 0 {
		finish = resp.Choices[0].FinishReason
	}
	h.respond(ctx, w, x, resp, finish)
}
