package metrics

import (
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics tracks calls to the llama.cpp server.
//
// Metrics:
//   - callisto_backend_requests_total: backend calls by outcome
//   - callisto_backend_request_duration_seconds: time to response headers
//   - callisto_backend_healthy: latest probe result (1=healthy, 0=unhealthy)
type BackendMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	healthy  *prometheus.GaugeVec
}

// NewBackendMetrics creates and registers backend metrics with the provided registry.
func NewBackendMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *BackendMetrics {
	bm := &BackendMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "backend_requests_total",
				Help:      "Total number of requests to the backend by outcome",
			},
			[]string{"backend", "outcome"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Backend latency until response headers in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"backend"},
		),

		healthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "backend_healthy",
				Help:      "Backend health status (1=healthy, 0=unhealthy)",
			},
			[]string{"backend"},
		),
	}

	registry.MustRegister(
		bm.requests,
		bm.latency,
		bm.healthy,
	)

	return bm
}

// Observe records one backend call.
func (bm *BackendMetrics) Observe(backend, outcome string, duration time.Duration) {
	bm.requests.WithLabelValues(backend, outcome).Inc()
	bm.latency.WithLabelValues(backend).Observe(duration.Seconds())
}

// SetHealth updates the health gauge.
func (bm *BackendMetrics) SetHealth(backend string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	bm.healthy.WithLabelValues(backend).Set(value)
}
