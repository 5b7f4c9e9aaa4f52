package llamacpp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/callisto/pkg/providers"
)

const completionsPath = "/completions"

// maxLineSize bounds one SSE line. Lines carrying n_probs alternatives can
// be far larger than bufio's 64KB default.
const maxLineSize = 4 << 20

var tracer = otel.Tracer("mercator-hq/callisto/pkg/providers/llamacpp")

// Client calls the llama.cpp server's completion endpoint.
type Client struct {
	provider *providers.HTTPProvider
}

// NewClient creates a client on top of an HTTP provider.
func NewClient(provider *providers.HTTPProvider) *Client {
	return &Client{provider: provider}
}

// Complete performs a non-streaming completion. llama.cpp answers with a
// single object or, for batched prompts, an array; both are returned as a
// slice holding exactly the returned choices.
func (c *Client) Complete(ctx context.Context, req Request) ([]Choice, error) {
	req.Stream = false

	ctx, span := c.startSpan(ctx, "llamacpp.complete", req)
	defer span.End()

	resp, err := c.post(ctx, req)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = &providers.BackendUnavailableError{
			Backend: c.provider.GetName(),
			Cause:   fmt.Errorf("failed to read response: %w", err),
		}
		recordError(span, err)
		return nil, err
	}

	choices, err := decodeChoices(body)
	if err != nil {
		err = &providers.ParseError{
			Backend:     c.provider.GetName(),
			RawResponse: truncate(string(body), 512),
			Cause:       err,
		}
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("llamacpp.choices", len(choices)))
	return choices, nil
}

// Stream opens a streaming completion. The returned reader must be closed.
func (c *Client) Stream(ctx context.Context, req Request) (*StreamReader, error) {
	req.Stream = true

	ctx, span := c.startSpan(ctx, "llamacpp.stream", req)

	resp, err := c.post(ctx, req)
	if err != nil {
		recordError(span, err)
		span.End()
		return nil, err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &StreamReader{
		backend: c.provider.GetName(),
		body:    resp.Body,
		scanner: scanner,
		span:    span,
	}, nil
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.provider.HealthCheck(ctx)
}

func (c *Client) post(ctx context.Context, req Request) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.provider.DoRequest(ctx, http.MethodPost, c.provider.URL(completionsPath), body, nil)
}

func (c *Client) startSpan(ctx context.Context, name string, req Request) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("llamacpp.backend", c.provider.GetName()),
		attribute.Bool("llamacpp.stream", req.Stream),
		attribute.Int("llamacpp.prompt_chars", len(req.Prompt)),
	}
	if req.NPredict != nil {
		attrs = append(attrs, attribute.Int("llamacpp.n_predict", *req.NPredict))
	}
	if req.NProbs != nil {
		attrs = append(attrs, attribute.Int("llamacpp.n_probs", *req.NProbs))
	}
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func decodeChoices(body []byte) ([]Choice, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	if trimmed[0] == '[' {
		var choices []Choice
		if err := json.Unmarshal(trimmed, &choices); err != nil {
			return nil, err
		}
		return choices, nil
	}

	var choice Choice
	if err := json.Unmarshal(trimmed, &choice); err != nil {
		return nil, err
	}
	return []Choice{choice}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StreamReader exposes the backend's event stream one raw line at a time.
type StreamReader struct {
	backend string
	body    io.ReadCloser
	scanner *bufio.Scanner
	span    trace.Span

	closeOnce sync.Once
	lines     int
}

// Lines returns a single-pass sequence of raw lines, without their trailing
// newline. A read failure is yielded once as *providers.BackendUnavailableError
// and ends the sequence. The sequence is not restartable.
func (s *StreamReader) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for s.scanner.Scan() {
			s.lines++
			if !yield(s.scanner.Text(), nil) {
				return
			}
		}
		if err := s.scanner.Err(); err != nil {
			bue := &providers.BackendUnavailableError{
				Backend: s.backend,
				Cause:   fmt.Errorf("stream interrupted: %w", err),
			}
			recordError(s.span, bue)
			yield("", bue)
		}
	}
}

// Close closes the backend connection. It is safe to call more than once.
func (s *StreamReader) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
		s.span.SetAttributes(attribute.Int("llamacpp.stream_lines", s.lines))
		s.span.End()
	})
	return err
}
