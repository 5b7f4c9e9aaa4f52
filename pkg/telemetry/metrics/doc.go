// Package metrics provides Prometheus metrics for the proxy.
//
// # Metrics
//
// With the default namespace "callisto":
//
//	callisto_requests_total{endpoint, status, stream}
//	callisto_request_duration_seconds{endpoint, stream}
//	callisto_request_errors_total{endpoint, kind}
//	callisto_stream_frames_total{endpoint}
//	callisto_backend_requests_total{backend, outcome}
//	callisto_backend_request_duration_seconds{backend}
//	callisto_backend_healthy{backend}
//	callisto_auth_failures_total{reason}
//	callisto_rate_limited_total{tier}
//	callisto_template_reloads_total{result}
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	provider.SetObserver(collector)          // backend metrics
//	mw := auth.NewMiddleware(gate, collector) // admission metrics
//	mux.Handle("/metrics", collector.Handler())
//
// Each Collector owns its registry, so tests can create as many as they
// like without duplicate registration panics.
package metrics
