package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveBackendRequest(backend, outcome string, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func newTestProvider(url string) *HTTPProvider {
	return NewHTTPProvider(ProviderConfig{
		Name:       "llamacpp",
		BaseURL:    url + "/",
		Timeout:    5 * time.Second,
		HealthPath: "/health",
	})
}

func TestHTTPProvider_DoRequest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completions" {
			t.Errorf("expected path /completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		w.Write([]byte(`{"content":"ok"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	obs := &recordingObserver{}
	p.SetObserver(obs)

	resp, err := p.DoRequest(context.Background(), http.MethodPost, p.URL("/completions"), []byte(`{}`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"content":"ok"}` {
		t.Errorf("unexpected body %q", body)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "success" {
		t.Errorf("expected one success observation, got %v", obs.outcomes)
	}
}

func TestHTTPProvider_DoRequest_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.DoRequest(context.Background(), http.MethodPost, p.URL("/completions"), []byte(`{}`), nil)

	var bue *BackendUnavailableError
	if !errors.As(err, &bue) {
		t.Fatalf("expected BackendUnavailableError, got %v", err)
	}
	if bue.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", bue.StatusCode)
	}
	if !strings.Contains(bue.Error(), "model loading") {
		t.Errorf("expected body in error, got %q", bue.Error())
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one attempt, got %d", calls.Load())
	}
}

func TestHTTPProvider_DoRequest_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := newTestProvider(url)
	_, err := p.DoRequest(context.Background(), http.MethodPost, p.URL("/completions"), []byte(`{}`), nil)

	var bue *BackendUnavailableError
	if !errors.As(err, &bue) {
		t.Fatalf("expected BackendUnavailableError, got %v", err)
	}
	if bue.Cause == nil {
		t.Error("expected transport cause")
	}
	if !strings.HasPrefix(err.Error(), "Error communicating with llama.cpp server: ") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestHTTPProvider_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	p := NewHTTPProvider(ProviderConfig{Name: "llamacpp", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := p.DoRequest(context.Background(), http.MethodPost, p.URL("/completions"), []byte(`{}`), nil)

	var bue *BackendUnavailableError
	if !errors.As(err, &bue) {
		t.Fatalf("expected BackendUnavailableError on timeout, got %v", err)
	}
}

func TestHTTPProvider_SteadyBodyOutlivesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		for i := 0; i < 8; i++ {
			io.WriteString(w, "data: x\n\n")
			rc.Flush()
			time.Sleep(20 * time.Millisecond)
		}
	}))
	defer server.Close()

	p := NewHTTPProvider(ProviderConfig{Name: "llamacpp", BaseURL: server.URL, Timeout: 100 * time.Millisecond})
	resp, err := p.DoRequest(context.Background(), http.MethodPost, p.URL("/completions"), []byte(`{}`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("expected steady body to outlive the timeout, got %v", err)
	}
	if got := strings.Count(string(body), "data: x"); got != 8 {
		t.Errorf("expected 8 events, got %d", got)
	}
}

func TestHTTPProvider_StalledBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: x\n\n")
		http.NewResponseController(w).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	p := NewHTTPProvider(ProviderConfig{Name: "llamacpp", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	resp, err := p.DoRequest(context.Background(), http.MethodPost, p.URL("/completions"), []byte(`{}`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	start := time.Now()
	_, err = io.ReadAll(resp.Body)
	if !errors.Is(err, ErrIdleTimeout) {
		t.Fatalf("expected ErrIdleTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected stalled body to fail near the timeout, took %s", elapsed)
	}
}

func TestHTTPProvider_HealthTracking(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	ctx := context.Background()

	for i := 0; i < unhealthyAfter; i++ {
		if err := p.HealthCheck(ctx); err == nil {
			t.Fatal("expected health check failure")
		}
	}
	if p.GetHealth().IsHealthy {
		t.Error("expected provider unhealthy after consecutive failures")
	}
	if got := p.GetHealth().ConsecutiveFailures; got != unhealthyAfter {
		t.Errorf("expected %d consecutive failures, got %d", unhealthyAfter, got)
	}

	healthy.Store(true)
	if err := p.HealthCheck(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := p.GetHealth()
	if !h.IsHealthy {
		t.Error("expected provider healthy after success")
	}
	if h.TotalRequests != unhealthyAfter+1 || h.FailedRequests != unhealthyAfter {
		t.Errorf("expected %d total and %d failed requests, got %d and %d",
			unhealthyAfter+1, unhealthyAfter, h.TotalRequests, h.FailedRequests)
	}
	if err := p.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
