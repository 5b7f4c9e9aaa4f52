package metrics

import (
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks inbound /v1 request processing.
//
// Metrics:
//   - callisto_requests_total: request count by endpoint, status, stream
//   - callisto_request_duration_seconds: end-to-end duration histogram
//   - callisto_request_errors_total: failures by error kind
//   - callisto_stream_frames_total: SSE frames relayed to clients
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	streamFrames    *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "requests_total",
				Help:      "Total number of API requests processed",
			},
			[]string{"endpoint", "status", "stream"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"endpoint", "stream"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "request_errors_total",
				Help:      "Total number of failed API requests by error kind",
			},
			[]string{"endpoint", "kind"},
		),

		streamFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "stream_frames_total",
				Help:      "Total number of server-sent event frames relayed to clients",
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.errorsTotal,
		rm.streamFrames,
	)

	return rm
}

// RecordRequest records one completed request.
func (rm *RequestMetrics) RecordRequest(endpoint, status, stream string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(endpoint, status, stream).Inc()
	rm.requestDuration.WithLabelValues(endpoint, stream).Observe(duration.Seconds())
}

// RecordError counts one failed request.
func (rm *RequestMetrics) RecordError(endpoint, kind string) {
	rm.errorsTotal.WithLabelValues(endpoint, kind).Inc()
}

// RecordStreamFrames adds n relayed frames.
func (rm *RequestMetrics) RecordStreamFrames(endpoint string, n int) {
	if n > 0 {
		rm.streamFrames.WithLabelValues(endpoint).Add(float64(n))
	}
}
