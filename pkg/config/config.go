package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Config is the root configuration structure for Callisto.
// It contains every section needed to run the proxy: the inbound listener,
// the llama.cpp backend, the chat template, API keys, rate limiting and
// telemetry.
type Config struct {
	// Proxy contains HTTP server configuration including listen address
	// and timeouts.
	Proxy ProxyConfig `yaml:"proxy"`

	// Backend contains the llama.cpp server connection settings.
	Backend BackendConfig `yaml:"backend"`

	// Template contains the chat prompt template source.
	Template TemplateConfig `yaml:"template"`

	// Auth contains the two API keys accepted by the proxy.
	Auth AuthConfig `yaml:"auth"`

	// RateLimit contains the sliding-window quota applied to the limited key.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Telemetry contains configuration for logging, metrics, tracing and
	// health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the inbound HTTP server.
type ProxyConfig struct {
	// Host is the interface to bind to.
	// Default: "0.0.0.0"
	Host string `yaml:"host"`

	// Port is the TCP port to listen on.
	// Default: 8000
	Port int `yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of a
	// buffered response. It must cover the longest non-streaming generation,
	// so the default is slightly above the backend timeout. Streaming
	// responses clear it once the stream starts.
	// Default: 310s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// Address returns the host:port pair the server listens on.
func (p ProxyConfig) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// BackendConfig contains the llama.cpp server connection settings.
type BackendConfig struct {
	// BaseURL is the llama.cpp server root. Completions are posted to
	// BaseURL + "/completions".
	// Default: "http://localhost:8080"
	BaseURL string `yaml:"base_url"`

	// Timeout bounds connecting, waiting for response headers, and each
	// silent gap while reading the body. Long streams that keep producing
	// tokens are not cut off.
	// Default: 300s
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the size of the keep-alive pool to the backend.
	// Default: 32
	MaxIdleConns int `yaml:"max_idle_conns"`

	// HealthPath is probed by the readiness endpoint and the scheduled
	// health check.
	// Default: "/health"
	HealthPath string `yaml:"health_path"`

	// HealthSchedule is a cron expression (robfig/cron syntax, descriptors
	// such as "@every 30s" allowed) for the background backend probe.
	// An empty value disables the scheduled probe.
	// Default: "@every 30s"
	HealthSchedule string `yaml:"health_schedule"`
}

// TemplateConfig describes where the chat template comes from. Path takes
// precedence over Inline when both are set.
type TemplateConfig struct {
	// Path is a file containing a Jinja chat template.
	Path string `yaml:"path"`

	// Inline is the template text itself.
	Inline string `yaml:"inline"`

	// Watch reloads the template when the file at Path changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// Source returns the template text, reading Path if it is set.
func (t TemplateConfig) Source() (string, error) {
	if t.Path != "" {
		data, err := os.ReadFile(t.Path)
		if err != nil {
			return "", fmt.Errorf("failed to load chat template: %w", err)
		}
		return string(data), nil
	}
	return t.Inline, nil
}

// AuthConfig holds the two accepted API keys. At least one must be set.
// Either key may be a ${secret:name} reference, resolved at startup from
// SecretsDir or CALLISTO_SECRET_* environment variables.
type AuthConfig struct {
	// UnlimitedKey bypasses rate limiting.
	UnlimitedKey string `yaml:"unlimited_api_key"`

	// LimitedKey is subject to the rate_limit quota.
	LimitedKey string `yaml:"limited_api_key"`

	// SecretsDir holds one file per secret, as mounted by Kubernetes or
	// Docker. Optional.
	SecretsDir string `yaml:"secrets_dir"`
}

// RateLimitConfig configures the sliding window for the limited key.
type RateLimitConfig struct {
	// Window is the length of the sliding window in seconds.
	// Default: 60
	Window int `yaml:"window"`

	// MaxRequests is the number of requests admitted per window.
	// Default: 10
	MaxRequests int `yaml:"max_requests"`
}

// WindowDuration returns Window as a time.Duration.
func (r RateLimitConfig) WindowDuration() time.Duration {
	return time.Duration(r.Window) * time.Second
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check endpoint configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks API keys and bearer tokens in log output.
	// Default: true
	Redact *bool `yaml:"redact"`
}

// RedactEnabled reports whether log redaction is on, treating an unset
// value as enabled.
func (l LoggingConfig) RedactEnabled() bool {
	return l.Redact == nil || *l.Redact
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "callisto"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets defines histogram buckets for request
	// duration in seconds.
	// Default: [0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// IsEnabled reports whether metrics are on, treating an unset value as
// enabled.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// ServiceName is the service.name resource attribute.
	// Default: "callisto"
	ServiceName string `yaml:"service_name"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health endpoint paths.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`
}
