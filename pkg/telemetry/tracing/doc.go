// Package tracing sets up OpenTelemetry tracing for the proxy.
//
// # Overview
//
// New installs a global tracer provider that exports spans over OTLP/gRPC,
// and a W3C Trace Context propagator. The propagator is installed even when
// export is disabled, so a traceparent sent by a client is still forwarded
// to llama.cpp.
//
// Spans produced by the proxy:
//
//	POST /v1/chat/completions   server span, one per request
//	  llamacpp.complete         client span around the backend call
//	  llamacpp.stream           client span covering the whole stream
//
// # Sampling Strategies
//
//   - always: sample every trace
//   - never: sample nothing
//   - ratio: sample a fraction of new traces (sample_ratio)
//
// All samplers respect the parent's decision when a traceparent arrives.
//
// # Usage
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "operation")
//	defer span.End()
package tracing
