// Package server assembles the proxy and manages its lifecycle.
//
// New builds every component from one *config.Config: the chat template
// renderer, the llama.cpp client, the admission gate and its rate-limit
// ledger, the Prometheus collector and the health checker. Nothing is
// looked up globally; each handler receives what it needs.
//
// # Routes
//
//	POST /v1/chat/completions   auth, then ChatHandler
//	POST /v1/completions        auth, then CompletionHandler
//	GET  /health                liveness
//	GET  /ready                 readiness, probes llama.cpp
//	GET  /version               build information
//	GET  /metrics               Prometheus, unless disabled
//
// All routes share the middleware chain from pkg/proxy/middleware.
//
// # Lifecycle
//
//	srv, err := server.New(cfg, server.Options{Logger: logger, Tracer: tracer})
//	if err != nil {
//	    return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	return srv.Run(ctx)
//
// Run starts the scheduled backend probe and, when template.watch is set,
// the template file watcher. When ctx is cancelled it stops accepting
// connections and waits up to proxy.shutdown_timeout for in-flight
// requests, including open streams, to finish.
package server
