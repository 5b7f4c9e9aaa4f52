// Package health provides liveness and readiness probes for the proxy.
//
// # Endpoints
//
//   - /health: liveness, 200 while the process is serving
//   - /ready: readiness, 200 only when every registered check passes
//   - /version: build information
//
// Readiness runs its checks live on every request, concurrently and each
// bounded by the checker's timeout. The "backend" check registered by the
// server probes llama.cpp's own /health endpoint.
//
// # Scheduled Probes
//
// A Prober runs a check on a cron schedule and reports each outcome to a
// callback, which the server uses to drive the backend_healthy gauge:
//
//	prober, err := health.NewProber("@every 30s", "llamacpp", client.Health,
//	    health.WithOnResult(func(healthy bool, err error) {
//	        collector.SetBackendHealth("llamacpp", healthy)
//	    }))
//	if err != nil {
//	    return err
//	}
//	prober.Start(ctx)
//	defer prober.Stop()
//
// Schedules use robfig/cron's standard syntax, including descriptors such as
// "@every 30s" and "@hourly".
package health
