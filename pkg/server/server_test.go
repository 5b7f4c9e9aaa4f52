package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
)

const (
	unlimitedKey = "sk-unlimited-test-key"
	limitedKey   = "sk-limited-test-key"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"status":"ok"}`))
		case "/completions":
			var req struct {
				Prompt string `json:"prompt"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			fmt.Fprintf(w, `{"content":%q,"stop_type":"eos","truncated":false}`, "echo:"+req.Prompt)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(backend.Close)
	return backend
}

func testConfig(backendURL string) *config.Config {
	cfg := &config.Config{
		Backend: config.BackendConfig{BaseURL: backendURL},
		Template: config.TemplateConfig{
			Inline: "{% for m in messages %}{{m.role}}: {{m.content}}\n{% endfor %}",
		},
		Auth: config.AuthConfig{
			UnlimitedKey: unlimitedKey,
			LimitedKey:   limitedKey,
		},
		RateLimit: config.RateLimitConfig{Window: 60, MaxRequests: 2},
	}
	config.ApplyDefaults(cfg)
	cfg.Backend.HealthSchedule = ""
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := New(cfg, Options{Version: "test"})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func do(t *testing.T, h http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const chatBody = `{"model":"llama","messages":[{"role":"user","content":"Hi"}]}`

func TestNew_Errors(t *testing.T) {
	backend := newBackend(t)

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "no keys", mutate: func(c *config.Config) { c.Auth = config.AuthConfig{} }},
		{name: "bad template", mutate: func(c *config.Config) { c.Template.Inline = "{% for %}" }},
		{name: "missing template file", mutate: func(c *config.Config) { c.Template.Path = "/nonexistent/template.jinja" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(backend.URL)
			tt.mutate(cfg)
			if _, err := New(cfg, Options{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := New(nil, Options{}); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestServer_ChatEndToEnd(t *testing.T) {
	backend := newBackend(t)
	h := newTestServer(t, testConfig(backend.URL)).Handler()

	rec := do(t, h, http.MethodPost, "/v1/chat/completions", unlimitedKey, chatBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "echo:user: Hi\n" {
		t.Errorf("expected rendered prompt to reach the backend, got %+v", resp.Choices)
	}
}

func TestServer_Admission(t *testing.T) {
	backend := newBackend(t)
	h := newTestServer(t, testConfig(backend.URL)).Handler()

	tests := []struct {
		name       string
		key        string
		wantStatus int
		wantDetail string
	}{
		{name: "missing key", key: "", wantStatus: http.StatusUnauthorized, wantDetail: "API key required"},
		{name: "unknown key", key: "sk-nope", wantStatus: http.StatusUnauthorized, wantDetail: "Invalid API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/completions", tt.key, `{"model":"m","prompt":"p"}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["detail"] != tt.wantDetail {
				t.Errorf("expected detail %q, got %q", tt.wantDetail, body["detail"])
			}
		})
	}
}

func TestServer_RateLimit(t *testing.T) {
	backend := newBackend(t)
	h := newTestServer(t, testConfig(backend.URL)).Handler()

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodPost, "/v1/completions", limitedKey, `{"model":"m","prompt":"p"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, rec.Code)
		}
	}

	rec := do(t, h, http.MethodPost, "/v1/completions", limitedKey, `{"model":"m","prompt":"p"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if !strings.Contains(rec.Body.String(), "Rate limit exceeded") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	for i := 0; i < 10; i++ {
		if rec := do(t, h, http.MethodPost, "/v1/completions", unlimitedKey, `{"model":"m","prompt":"p"}`); rec.Code != http.StatusOK {
			t.Fatalf("unlimited request %d: expected status 200, got %d", i+1, rec.Code)
		}
	}
}

func TestServer_OperationalRoutes(t *testing.T) {
	backend := newBackend(t)
	h := newTestServer(t, testConfig(backend.URL)).Handler()

	// Generate one request so the request counter has a sample.
	do(t, h, http.MethodPost, "/v1/chat/completions", unlimitedKey, chatBody)

	tests := []struct {
		path       string
		wantStatus int
		contains   string
	}{
		{path: "/health", wantStatus: http.StatusOK, contains: `"status":"ok"`},
		{path: "/ready", wantStatus: http.StatusOK, contains: `"backend"`},
		{path: "/version", wantStatus: http.StatusOK, contains: `"version":"test"`},
		{path: "/metrics", wantStatus: http.StatusOK, contains: "callisto_requests_total"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, "", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %s, got %s", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	backend := newBackend(t)
	cfg := testConfig(backend.URL)
	disabled := false
	cfg.Telemetry.Metrics.Enabled = &disabled

	rec := do(t, newTestServer(t, cfg).Handler(), http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	backend := newBackend(t)
	h := newTestServer(t, testConfig(backend.URL)).Handler()

	rec := do(t, h, http.MethodGet, "/v1/chat/completions", unlimitedKey, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	backend := newBackend(t)
	cfg := testConfig(backend.URL)
	cfg.Backend.HealthSchedule = "@every 1h"

	dir := t.TempDir()
	path := filepath.Join(dir, "chat.jinja")
	if err := os.WriteFile(path, []byte(cfg.Template.Inline), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg.Template.Path = path
	cfg.Template.Watch = true

	srv := newTestServer(t, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if !srv.IsRunning() {
		t.Error("expected server to report running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("expected server to report stopped")
	}
}
