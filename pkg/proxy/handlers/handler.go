package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/callisto/pkg/providers/llamacpp"
	"mercator-hq/callisto/pkg/proxy"
	"mercator-hq/callisto/pkg/proxy/types"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/tracing"
)

// Endpoint paths served by the completion handlers.
const (
	ChatCompletionsPath = "/v1/chat/completions"
	CompletionsPath     = "/v1/completions"
)

// Backend is the llama.cpp client used by the completion handlers.
type Backend interface {
	Complete(ctx context.Context, req llamacpp.Request) ([]llamacpp.Choice, error)
	Stream(ctx context.Context, req llamacpp.Request) (*llamacpp.StreamReader, error)
}

// Renderer turns chat messages into a single prompt.
type Renderer interface {
	Render(messages []types.Message) (string, error)
}

// Recorder receives per-request metrics.
type Recorder interface {
	RecordRequest(endpoint string, status int, stream bool, duration time.Duration)
	RecordRequestError(endpoint, kind string)
	RecordStreamFrames(endpoint string, n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, int, bool, time.Duration) {}
func (nopRecorder) RecordRequestError(string, string)              {}
func (nopRecorder) RecordStreamFrames(string, int)                 {}

// exchange carries the state of one request through the handler.
type exchange struct {
	endpoint     string
	model        string
	stream       bool
	start        time.Time
	backendStart time.Time
}

func (x *exchange) backendLatency() time.Duration {
	if x.backendStart.IsZero() {
		return 0
	}
	return time.Since(x.backendStart)
}

// base holds what the chat and completion handlers share.
type base struct {
	backend Backend
	metrics Recorder
}

func newBase(backend Backend, metrics Recorder) base {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return base{backend: backend, metrics: metrics}
}

// begin annotates ctx and the active span once the request body is known.
func (b *base) begin(ctx context.Context, x *exchange) context.Context {
	ctx = logging.WithModel(ctx, x.model)
	tracing.SetRequestAttributes(trace.SpanFromContext(ctx),
		logging.GetRequestID(ctx), x.endpoint, x.model, x.stream)
	return ctx
}

// fail writes the error response for err and records it.
func (b *base) fail(ctx context.Context, w http.ResponseWriter, x *exchange, err error) {
	kind := proxy.ErrorKind(err)
	errResp := proxy.HandleError(err)
	status := errResp.Error.HTTPStatusCode()

	logger := logging.FromContext(ctx)
	attrs := []any{
		"endpoint", x.endpoint,
		"stream", x.stream,
		"error_kind", kind,
		"status", status,
		"error", err,
		"backend_latency_ms", x.backendLatency().Milliseconds(),
		"total_latency_ms", time.Since(x.start).Milliseconds(),
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "completion request failed", attrs...)
	} else {
		logger.WarnContext(ctx, "completion request rejected", attrs...)
	}

	tracing.SetErrorAttributes(trace.SpanFromContext(ctx), err, kind)
	b.metrics.RecordRequestError(x.endpoint, kind)
	b.metrics.RecordRequest(x.endpoint, status, x.stream, time.Since(x.start))

	if werr := proxy.WriteErrorResponse(w, errResp); werr != nil {
		logger.ErrorContext(ctx, "failed to write error response", "error", werr)
	}
}

// respond writes a buffered JSON response.
func (b *base) respond(ctx context.Context, w http.ResponseWriter, x *exchange, body any, finishReason string) {
	logging.FromContext(ctx).InfoContext(ctx, "completion request served",
		"endpoint", x.endpoint,
		"stream", false,
		"finish_reason", finishReason,
		"backend_latency_ms", x.backendLatency().Milliseconds(),
		"total_latency_ms", time.Since(x.start).Milliseconds(),
	)
	b.metrics.RecordRequest(x.endpoint, http.StatusOK, false, time.Since(x.start))

	if err := proxy.WriteJSONResponse(w, http.StatusOK, body); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "failed to write response", "error", err)
	}
}

// relay opens a backend stream and copies framed lines to the client,
// flushing after each one.
func (b *base) relay(ctx context.Context, w http.ResponseWriter, x *exchange, req llamacpp.Request) {
	x.backendStart = time.Now()
	reader, err := b.backend.Stream(ctx, req)
	if err != nil {
		b.fail(ctx, w, x, err)
		return
	}
	defer reader.Close()

	proxy.SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout; the backend idle deadline
	// bounds a stalled stream instead.
	_ = rc.SetWriteDeadline(time.Time{})
	_ = rc.Flush()

	var (
		frames    int
		streamErr error
	)
	for frame, err := range proxy.FrameStream(ctx, reader.Lines()) {
		if err != nil {
			streamErr = err
			break
		}
		if _, err := io.WriteString(w, frame); err != nil {
			streamErr = err
			break
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			streamErr = err
			break
		}
		frames++
	}

	logger := logging.FromContext(ctx)
	attrs := []any{
		"endpoint", x.endpoint,
		"stream", true,
		"frames", frames,
		"backend_latency_ms", x.backendLatency().Milliseconds(),
		"total_latency_ms", time.Since(x.start).Milliseconds(),
	}

	b.metrics.RecordStreamFrames(x.endpoint, frames)
	b.metrics.RecordRequest(x.endpoint, http.StatusOK, true, time.Since(x.start))
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(tracing.AttrStreamFrames.Int(frames))

	switch {
	case streamErr == nil:
		logger.InfoContext(ctx, "completion stream finished", attrs...)
	case ctx.Err() != nil:
		logger.WarnContext(ctx, "client disconnected during streaming", attrs...)
		b.metrics.RecordRequestError(x.endpoint, proxy.ErrorKind(context.Canceled))
	default:
		kind := proxy.ErrorKind(streamErr)
		logger.ErrorContext(ctx, "completion stream interrupted", append(attrs, "error_kind", kind, "error", streamErr)...)
		b.metrics.RecordRequestError(x.endpoint, kind)
		tracing.SetErrorAttributes(span, streamErr, kind)
	}
}
