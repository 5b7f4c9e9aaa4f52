package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/limits/ratelimit"
	"mercator-hq/callisto/pkg/prompt"
	"mercator-hq/callisto/pkg/providers"
	"mercator-hq/callisto/pkg/providers/llamacpp"
	"mercator-hq/callisto/pkg/proxy/handlers"
	"mercator-hq/callisto/pkg/proxy/middleware"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/telemetry/tracing"
)

// backendName labels the llama.cpp backend in metrics and logs.
const backendName = "llamacpp"

// Options carries process-level collaborators that are not part of the
// configuration file.
type Options struct {
	Logger *slog.Logger
	Tracer *tracing.Tracer

	// Registry receives the proxy's metrics. A fresh registry with Go and
	// process collectors is used when nil.
	Registry *prometheus.Registry

	Version   string
	Commit    string
	BuildTime string
}

// Server is the HTTP proxy in front of llama.cpp.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	tracer *tracing.Tracer

	renderer  *prompt.Renderer
	provider  *providers.HTTPProvider
	client    *llamacpp.Client
	ledger    *ratelimit.Ledger
	gate      *auth.Gate
	collector *metrics.Collector
	checker   *health.Checker

	handler    http.Handler
	httpServer *http.Server

	mu      sync.Mutex
	running bool
}

// New builds a server from cfg. cfg must already be validated.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	source, err := cfg.Template.Source()
	if err != nil {
		return nil, err
	}
	renderer, err := prompt.New(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat template: %w", err)
	}

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, opts.Registry)

	provider := providers.NewHTTPProvider(providers.ProviderConfig{
		Name:         backendName,
		BaseURL:      cfg.Backend.BaseURL,
		Timeout:      cfg.Backend.Timeout,
		MaxIdleConns: cfg.Backend.MaxIdleConns,
		HealthPath:   cfg.Backend.HealthPath,
	})
	provider.SetObserver(collector)

	ledger := ratelimit.NewLedger(cfg.RateLimit.WindowDuration(), cfg.RateLimit.MaxRequests)
	gate, err := auth.NewGate(cfg.Auth.UnlimitedKey, cfg.Auth.LimitedKey, ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure API keys: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		tracer:    opts.Tracer,
		renderer:  renderer,
		provider:  provider,
		client:    llamacpp.NewClient(provider),
		ledger:    ledger,
		gate:      gate,
		collector: collector,
		checker:   health.New(health.DefaultCheckTimeout),
	}
	s.handler = s.routes(opts)

	return s, nil
}

// routes builds the route table and wraps it in the middleware chain.
func (s *Server) routes(opts Options) http.Handler {
	mux := http.NewServeMux()
	admission := auth.NewMiddleware(s.gate, s.collector)

	chat := handlers.NewChatHandler(s.client, s.renderer, s.collector)
	completion := handlers.NewCompletionHandler(s.client, s.collector)

	mux.Handle("POST "+handlers.ChatCompletionsPath, admission.Handle(chat))
	mux.Handle("POST "+handlers.CompletionsPath, admission.Handle(completion))

	healthCfg := s.cfg.Telemetry.Health
	mux.Handle("GET "+healthCfg.LivenessPath, handlers.NewHealthHandler(s.checker))
	mux.Handle("GET "+healthCfg.ReadinessPath, handlers.NewReadyHandler(s.checker, s.client))
	mux.Handle("GET /version", health.VersionHandler(opts.Version, opts.Commit, opts.BuildTime))

	if s.cfg.Telemetry.Metrics.IsEnabled() {
		mux.Handle("GET "+s.cfg.Telemetry.Metrics.Path, s.collector.Handler())
	}

	return middleware.Chain(mux,
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Tracing(s.tracer),
		middleware.Logging(s.logger),
	)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Collector returns the server's metrics collector.
func (s *Server) Collector() *metrics.Collector {
	return s.collector
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Proxy.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Proxy.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// Background tasks (backend probe, template watcher) live for the same span.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.running = true
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.cfg.Proxy.ReadTimeout,
		WriteTimeout:   s.cfg.Proxy.WriteTimeout,
		IdleTimeout:    s.cfg.Proxy.IdleTimeout,
		MaxHeaderBytes: s.cfg.Proxy.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	bgCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()

	stopBackground, err := s.startBackground(bgCtx)
	if err != nil {
		ln.Close()
		return err
	}
	defer stopBackground()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting proxy server",
			"address", ln.Addr().String(),
			"backend", s.cfg.Backend.BaseURL,
			"rate_limit_window_s", s.cfg.RateLimit.Window,
			"rate_limit_max_requests", s.cfg.RateLimit.MaxRequests,
		)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.Proxy.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Proxy.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := s.provider.Close(); err != nil {
		s.logger.Warn("failed to close backend connections", "error", err)
	}

	s.logger.Info("proxy server stopped")
	return nil
}

// startBackground launches the scheduled backend probe and the template
// watcher. The returned function stops both.
func (s *Server) startBackground(ctx context.Context) (func(), error) {
	var stops []func()
	stopAll := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	if schedule := s.cfg.Backend.HealthSchedule; schedule != "" {
		prober, err := health.NewProber(schedule, backendName, s.client.Health,
			health.WithProberLogger(s.logger),
			health.WithOnResult(func(healthy bool, err error) {
				s.collector.SetBackendHealth(backendName, healthy)
			}),
		)
		if err != nil {
			return nil, err
		}
		if err := prober.Start(ctx); err != nil {
			return nil, err
		}
		stops = append(stops, prober.Stop)
	}

	if s.cfg.Template.Watch && s.cfg.Template.Path != "" {
		watcher, err := prompt.NewWatcher(s.renderer, s.cfg.Template.Path,
			prompt.WithLogger(s.logger),
			prompt.WithReloadHook(s.collector.RecordTemplateReload),
		)
		if err != nil {
			stopAll()
			return nil, err
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := watcher.Watch(ctx); err != nil {
				s.logger.Error("template watcher stopped", "error", err)
			}
		}()
		stops = append(stops, func() {
			_ = watcher.Stop()
			select {
			case <-done:
			case <-time.After(time.Second):
			}
		})
	}

	return stopAll, nil
}

// IsRunning returns true while Serve is active.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
