// Package telemetry groups callisto's observability packages.
//
// # Components
//
//   - logging: slog construction, request-scoped context fields and
//     redaction of API keys
//   - metrics: Prometheus collectors for requests, backend calls, admission
//     decisions and template reloads
//   - tracing: OpenTelemetry tracer provider with OTLP/gRPC export
//   - health: liveness and readiness checks plus the scheduled backend probe
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, cfg.Auth.UnlimitedKey))
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//
// Each component is configured from its section under telemetry in the
// configuration file and can be disabled independently, except logging.
package telemetry
