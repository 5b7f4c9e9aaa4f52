package handlers

import (
	"context"
	"net/http"

	"mercator-hq/callisto/pkg/telemetry/health"
)

// BackendHealthCheck is the readiness check name for the llama.cpp server.
const BackendHealthCheck = "backend"

// HealthProber probes a backend's health endpoint.
type HealthProber interface {
	Health(ctx context.Context) error
}

// NewHealthHandler returns the liveness handler. It never touches the
// backend, so a slow llama.cpp cannot get the proxy restarted.
func NewHealthHandler(checker *health.Checker) http.Handler {
	return checker.LivenessHandler()
}

// NewReadyHandler returns the readiness handler. When backend is non-nil it
// is registered as the "backend" check first.
func NewReadyHandler(checker *health.Checker, backend HealthProber) http.Handler {
	if backend != nil {
		checker.RegisterCheck(BackendHealthCheck, backend.Health)
	}
	return checker.ReadinessHandler()
}
