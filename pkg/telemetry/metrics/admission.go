package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AdmissionMetrics tracks the admission gate and template lifecycle.
//
// Metrics:
//   - callisto_auth_failures_total: rejected API keys by reason (missing, invalid)
//   - callisto_rate_limited_total: requests refused by the sliding window
//   - callisto_template_reloads_total: chat template reloads by result
type AdmissionMetrics struct {
	authFailures    *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	templateReloads *prometheus.CounterVec
}

// NewAdmissionMetrics creates and registers admission metrics with the provided registry.
func NewAdmissionMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *AdmissionMetrics {
	am := &AdmissionMetrics{
		authFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "auth_failures_total",
				Help:      "Total number of rejected API keys by reason",
			},
			[]string{"reason"},
		),

		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rate_limited_total",
				Help:      "Total number of requests refused by the rate limiter",
			},
			[]string{"tier"},
		),

		templateReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "template_reloads_total",
				Help:      "Total number of chat template reload attempts by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		am.authFailures,
		am.rateLimited,
		am.templateReloads,
	)

	return am
}
