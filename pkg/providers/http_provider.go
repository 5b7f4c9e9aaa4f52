package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// maxErrorBody caps how much of a non-2xx response body is kept.
const maxErrorBody = 4096

// unhealthyAfter is the number of consecutive failures that marks the
// backend unhealthy.
const unhealthyAfter = 3

// ErrIdleTimeout reports a response body that delivered no data for longer
// than the configured timeout.
var ErrIdleTimeout = errors.New("backend response idle timeout")

// HTTPProvider is the HTTP transport to a single backend.
// It provides connection pooling, timeout handling and health tracking.
type HTTPProvider struct {
	// config contains the provider configuration
	config ProviderConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	// observer receives per-request outcomes; may be nil
	observer Observer

	// health tracks the provider's health status
	health ProviderHealth

	// healthMu protects concurrent access to health status
	healthMu sync.RWMutex
}

// NewHTTPProvider creates a new HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	dialer := &net.Dialer{
		Timeout:   config.Timeout,
		KeepAlive: 30 * time.Second,
	}

	// No http.Client.Timeout: it would also cap the body and cut off long
	// streams. Headers are bounded here, body reads by idleBody.
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ResponseHeaderTimeout: config.Timeout,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConns,
		IdleConnTimeout:       config.IdleConnTimeout,
		// llama.cpp streams uncompressed SSE; compression only adds latency.
		DisableCompression: true,
	}

	client := &http.Client{
		Transport: transport,
	}

	return &HTTPProvider{
		config: config,
		client: client,
		health: ProviderHealth{
			IsHealthy:             true, // Start optimistic
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
	}
}

// SetObserver installs the metrics observer. It must be called before the
// provider is used.
func (p *HTTPProvider) SetObserver(o Observer) {
	p.observer = o
}

// GetName returns the provider's configured name.
func (p *HTTPProvider) GetName() string {
	return p.config.Name
}

// URL joins path onto the configured base URL.
func (p *HTTPProvider) URL(path string) string {
	return p.config.BaseURL + path
}

// GetHealth returns detailed health information.
func (p *HTTPProvider) GetHealth() ProviderHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// updateHealth updates the provider's health status.
// This is called after each health check or request.
func (p *HTTPProvider) updateHealth(success bool, err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.LastCheck = time.Now()
	p.health.TotalRequests++

	if success {
		if !p.health.IsHealthy {
			slog.Info("backend marked healthy",
				"backend", p.config.Name,
				"previous_failures", p.health.ConsecutiveFailures,
			)
		}
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		p.health.LastSuccessfulRequest = time.Now()
		return
	}

	p.health.FailedRequests++
	p.health.ConsecutiveFailures++
	p.health.LastError = err

	if p.health.ConsecutiveFailures == unhealthyAfter {
		p.health.IsHealthy = false
		slog.Warn("backend marked unhealthy",
			"backend", p.config.Name,
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// DoRequest performs a single HTTP request. It does not retry. A 2xx
// response is returned with its body open; the caller must close it.
// Anything else is returned as *BackendUnavailableError.
//
// The configured timeout bounds the wait for response headers and every
// gap between body reads, not the total duration, so a long stream that
// keeps producing data is never cut off. A stalled body fails its next
// read with ErrIdleTimeout.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		cancel(nil)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	slog.DebugContext(ctx, "sending request to backend",
		"backend", p.config.Name,
		"method", method,
		"url", url,
	)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		cancel(nil)
		p.observe("error", start)
		p.updateHealth(false, err)
		return nil, &BackendUnavailableError{
			Backend: p.config.Name,
			Cause:   err,
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.observe("success", start)
		p.updateHealth(true, nil)
		resp.Body = newIdleBody(ctx, resp.Body, p.config.Timeout, cancel)
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	cancel(nil)

	p.observe(fmt.Sprintf("status_%d", resp.StatusCode), start)
	bue := &BackendUnavailableError{
		Backend:    p.config.Name,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(errorBody)),
	}
	p.updateHealth(false, bue)
	return nil, bue
}

func (p *HTTPProvider) observe(outcome string, start time.Time) {
	if p.observer != nil {
		p.observer.ObserveBackendRequest(p.config.Name, outcome, time.Since(start))
	}
}

// HealthCheck performs a GET on the configured health path.
func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	resp, err := p.DoRequest(ctx, http.MethodGet, p.URL(p.config.HealthPath), nil, nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	h := p.GetHealth()
	slog.Info("backend provider closed",
		"backend", p.config.Name,
		"healthy", h.IsHealthy,
		"total_requests", h.TotalRequests,
		"failed_requests", h.FailedRequests,
	)
	return nil
}

// idleBody cancels the request when no Read returns data within timeout.
// A zero timeout disables the deadline.
type idleBody struct {
	io.ReadCloser
	ctx     context.Context
	cancel  context.CancelCauseFunc
	timeout time.Duration
	timer   *time.Timer
}

func newIdleBody(ctx context.Context, rc io.ReadCloser, timeout time.Duration, cancel context.CancelCauseFunc) *idleBody {
	b := &idleBody{ReadCloser: rc, ctx: ctx, cancel: cancel, timeout: timeout}
	if timeout > 0 {
		b.timer = time.AfterFunc(timeout, func() { cancel(ErrIdleTimeout) })
	}
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 && b.timer != nil {
		b.timer.Reset(b.timeout)
	}
	if err != nil && err != io.EOF && errors.Is(context.Cause(b.ctx), ErrIdleTimeout) {
		err = fmt.Errorf("%w after %s", ErrIdleTimeout, b.timeout)
	}
	return n, err
}

func (b *idleBody) Close() error {
	if b.timer != nil {
		b.timer.Stop()
	}
	err := b.ReadCloser.Close()
	b.cancel(nil)
	return err
}
