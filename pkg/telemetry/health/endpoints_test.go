package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"
)

func TestLivenessHandler(t *testing.T) {
	checker := New(time.Second)
	handler := checker.LivenessHandler()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if status.Status != StatusOK {
		t.Errorf("expected status ok, got %s", status.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		check    CheckFunc
		wantCode int
	}{
		{
			name:     "backend up",
			check:    func(ctx context.Context) error { return nil },
			wantCode: http.StatusOK,
		},
		{
			name:     "backend down",
			check:    func(ctx context.Context) error { return errors.New("connection refused") },
			wantCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			checker.RegisterCheck("backend", tt.check)

			rec := httptest.NewRecorder()
			checker.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}

			var status HealthStatus
			if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if _, ok := status.Checks["backend"]; !ok {
				t.Error("expected backend check in response")
			}
		})
	}
}

func TestHandlers_Methods(t *testing.T) {
	checker := New(time.Second)
	handlers := map[string]http.HandlerFunc{
		"liveness":  checker.LivenessHandler(),
		"readiness": checker.ReadinessHandler(),
		"version":   VersionHandler("1.0.0", "abc123", "2026-01-01"),
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected status 405, got %d", rec.Code)
			}

			rec = httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodHead, "/", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("expected status 200 for HEAD, got %d", rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("expected empty body for HEAD, got %q", rec.Body.String())
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.0.0", "abc123", "2026-01-01")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if info.Version != "1.0.0" || info.Commit != "abc123" || info.BuildTime != "2026-01-01" {
		t.Errorf("unexpected version info: %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected go version %s, got %s", runtime.Version(), info.GoVersion)
	}
}
