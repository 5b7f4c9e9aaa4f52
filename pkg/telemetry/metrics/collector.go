package metrics

import (
	"strconv"
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DefaultNamespace is used when the configuration leaves the namespace empty.
const DefaultNamespace = "callisto"

// DefaultRequestDurationBuckets cover fast health probes through generations
// that run into the backend timeout.
var DefaultRequestDurationBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Collector records proxy metrics. It implements auth.Recorder and
// providers.Observer.
type Collector struct {
	registry *prometheus.Registry

	requests  *RequestMetrics
	backend   *BackendMetrics
	admission *AdmissionMetrics
}

// NewCollector creates a collector and registers its metrics with registry.
// A nil registry gets a fresh one with Go runtime and process collectors.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = DefaultRequestDurationBuckets
	}

	return &Collector{
		registry:  registry,
		requests:  NewRequestMetrics(cfg, registry),
		backend:   NewBackendMetrics(cfg, registry),
		admission: NewAdmissionMetrics(cfg, registry),
	}
}

// Registry returns the registry metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records a completed /v1 request.
//
// Example:
//
//	collector.RecordRequest("chat", http.StatusOK, false, 1200*time.Millisecond)
func (c *Collector) RecordRequest(endpoint string, status int, stream bool, duration time.Duration) {
	c.requests.RecordRequest(endpoint, strconv.Itoa(status), strconv.FormatBool(stream), duration)
}

// RecordRequestError counts a failed request by error kind.
func (c *Collector) RecordRequestError(endpoint, kind string) {
	c.requests.RecordError(endpoint, kind)
}

// RecordStreamFrames counts SSE frames relayed to a client.
func (c *Collector) RecordStreamFrames(endpoint string, n int) {
	c.requests.RecordStreamFrames(endpoint, n)
}

// ObserveBackendRequest implements providers.Observer.
func (c *Collector) ObserveBackendRequest(backend, outcome string, duration time.Duration) {
	c.backend.Observe(backend, outcome, duration)
}

// SetBackendHealth records the result of the latest backend health probe.
func (c *Collector) SetBackendHealth(backend string, healthy bool) {
	c.backend.SetHealth(backend, healthy)
}

// RecordAuthFailure implements auth.Recorder.
func (c *Collector) RecordAuthFailure(reason string) {
	c.admission.authFailures.WithLabelValues(reason).Inc()
}

// RecordRateLimited implements auth.Recorder.
func (c *Collector) RecordRateLimited(tier string) {
	c.admission.rateLimited.WithLabelValues(tier).Inc()
}

// RecordTemplateReload counts a chat template reload attempt.
func (c *Collector) RecordTemplateReload(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.admission.templateReloads.WithLabelValues(result).Inc()
}
