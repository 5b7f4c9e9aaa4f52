package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadWithEnvOverrides for that.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides before validating.
//
// The loading sequence is:
// 1. Load YAML from file (skipped when path is empty)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated performs steps 1 to 3 of LoadWithEnvOverrides. Callers
// that layer further overrides, such as command-line flags, must call
// Validate themselves.
func LoadUnvalidated(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format CALLISTO_SECTION_FIELD. Malformed
// numeric or duration values are ignored so that Validate reports on the
// file or default value instead.
func applyEnvOverrides(cfg *Config) {
	// Legacy names used by existing deployments.
	if val := os.Getenv("LLAMA_SERVER_URL"); val != "" {
		cfg.Backend.BaseURL = val
	}
	if val := os.Getenv("UNLIMITED_API_KEY"); val != "" {
		cfg.Auth.UnlimitedKey = val
	}
	if val := os.Getenv("LIMITED_API_KEY"); val != "" {
		cfg.Auth.LimitedKey = val
	}

	// Proxy overrides
	if val := os.Getenv("CALLISTO_PROXY_HOST"); val != "" {
		cfg.Proxy.Host = val
	}
	setInt("CALLISTO_PROXY_PORT", &cfg.Proxy.Port)
	setDuration("CALLISTO_PROXY_READ_TIMEOUT", &cfg.Proxy.ReadTimeout)
	setDuration("CALLISTO_PROXY_WRITE_TIMEOUT", &cfg.Proxy.WriteTimeout)
	setDuration("CALLISTO_PROXY_SHUTDOWN_TIMEOUT", &cfg.Proxy.ShutdownTimeout)

	// Backend overrides
	if val := os.Getenv("CALLISTO_BACKEND_BASE_URL"); val != "" {
		cfg.Backend.BaseURL = val
	}
	setDuration("CALLISTO_BACKEND_TIMEOUT", &cfg.Backend.Timeout)
	if val := os.Getenv("CALLISTO_BACKEND_HEALTH_SCHEDULE"); val != "" {
		cfg.Backend.HealthSchedule = val
	}

	// Template overrides
	if val := os.Getenv("CALLISTO_TEMPLATE_PATH"); val != "" {
		cfg.Template.Path = val
	}
	if val := os.Getenv("CALLISTO_TEMPLATE_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Template.Watch = b
		}
	}

	// Auth overrides
	if val := os.Getenv("CALLISTO_AUTH_UNLIMITED_API_KEY"); val != "" {
		cfg.Auth.UnlimitedKey = val
	}
	if val := os.Getenv("CALLISTO_AUTH_LIMITED_API_KEY"); val != "" {
		cfg.Auth.LimitedKey = val
	}
	if val := os.Getenv("CALLISTO_AUTH_SECRETS_DIR"); val != "" {
		cfg.Auth.SecretsDir = val
	}

	// Rate limit overrides
	setInt("CALLISTO_RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)
	setInt("CALLISTO_RATE_LIMIT_MAX_REQUESTS", &cfg.RateLimit.MaxRequests)

	// Telemetry overrides
	if val := os.Getenv("CALLISTO_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}

func setInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setDuration(name string, dst *time.Duration) {
	if val := os.Getenv(name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
