package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/security/secrets"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/tracing"
)

var serveFlags struct {
	host                 string
	port                 int
	llamaServer          string
	chatTemplate         string
	rateLimitWindow      int
	rateLimitMaxRequests int
	logLevel             string
	dryRun               bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the proxy server",
	Long: `Start the proxy server in front of a llama.cpp server.

Flags override values from the configuration file and the environment.
At least one of UNLIMITED_API_KEY and LIMITED_API_KEY must be set.

Examples:
  # Proxy a local llama.cpp server
  callisto serve --chat-template-jinja ./template.jinja

  # Different backend and a tighter limit for the limited key
  callisto serve --llama-server http://gpu-box:8080 \
      --rate-limit-window 60 --rate-limit-max-requests 5

  # Validate config without starting server
  callisto serve --config config.yaml --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	bindServeFlags(serveCmd)
}

func bindServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&serveFlags.host, "host", config.DefaultHost, "host to bind to")
	f.IntVar(&serveFlags.port, "port", config.DefaultPort, "port to bind to")
	f.StringVar(&serveFlags.llamaServer, "llama-server", config.DefaultBackendBaseURL, "URL of the llama.cpp server")
	f.StringVar(&serveFlags.chatTemplate, "chat-template-jinja", "", "path to chat template file")
	f.IntVar(&serveFlags.rateLimitWindow, "rate-limit-window", config.DefaultRateLimitWindow, "rate limit time window in seconds")
	f.IntVar(&serveFlags.rateLimitMaxRequests, "rate-limit-max-requests", config.DefaultRateLimitMaxRequests, "maximum requests allowed within the window")
	f.StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	f.BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

// loadServeConfig layers file, environment and explicitly set flags, in that
// order, and validates the result.
func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadUnvalidated(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Proxy.Host = serveFlags.host
	}
	if flags.Changed("port") {
		cfg.Proxy.Port = serveFlags.port
	}
	if flags.Changed("llama-server") {
		cfg.Backend.BaseURL = serveFlags.llamaServer
	}
	if flags.Changed("chat-template-jinja") {
		cfg.Template.Path = serveFlags.chatTemplate
	}
	if flags.Changed("rate-limit-window") {
		cfg.RateLimit.Window = serveFlags.rateLimitWindow
	}
	if flags.Changed("rate-limit-max-requests") {
		cfg.RateLimit.MaxRequests = serveFlags.rateLimitMaxRequests
	}
	switch {
	case serveFlags.logLevel != "":
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	case verbose:
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := resolveSecrets(cmd.Context(), cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}

// resolveSecrets replaces ${secret:name} references in the API keys.
func resolveSecrets(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !secrets.HasReferences(cfg.Auth.UnlimitedKey) && !secrets.HasReferences(cfg.Auth.LimitedKey) {
		return nil
	}
	mgr, err := secrets.NewDefaultManager(cfg.Auth.SecretsDir, nil)
	if err != nil {
		return cli.NewConfigError("auth.secrets_dir", err.Error())
	}
	if err := mgr.ResolveAll(ctx, &cfg.Auth.UnlimitedKey, &cfg.Auth.LimitedKey); err != nil {
		return cli.NewConfigError("auth", err.Error())
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, cfg.Auth.UnlimitedKey, cfg.Auth.LimitedKey))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	tracer, err := tracing.New(cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	srv, err := server.New(cfg, server.Options{
		Logger:    logger,
		Tracer:    tracer,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	logger.Info("configuration loaded",
		"version", Version,
		"config", cfgFile,
		"template", templateOrigin(cfg.Template),
		"tracing", tracer.Enabled(),
	)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := cli.SignalContext(parent)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}

	logger.Info("server stopped")
	return nil
}

func templateOrigin(t config.TemplateConfig) string {
	if t.Path != "" {
		return t.Path
	}
	return "inline"
}
