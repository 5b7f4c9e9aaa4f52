// Package config provides configuration management for Callisto.
//
// Configuration is read from an optional YAML file, completed with default
// values, overridden from the environment, and validated once at startup.
// The resulting *Config is treated as immutable and is passed explicitly to
// the constructors that need it; there is no package-level instance.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.Load("callisto.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadWithEnvOverrides("callisto.yaml")
//
// An empty path skips the file and starts from defaults.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CALLISTO_SECTION_FIELD,
// for example CALLISTO_BACKEND_BASE_URL or CALLISTO_RATE_LIMIT_WINDOW. For
// compatibility with existing deployments the API keys and backend URL are
// also read from UNLIMITED_API_KEY, LIMITED_API_KEY and LLAMA_SERVER_URL.
//
// # Configuration Precedence
//
// Values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Command-line flags (applied by cmd/callisto before Validate)
//
// # Example Configuration
//
//	proxy:
//	  host: "0.0.0.0"
//	  port: 8000
//	backend:
//	  base_url: "http://localhost:8080"
//	  timeout: "300s"
//	template:
//	  path: "./templates/chatml.jinja"
//	  watch: true
//	auth:
//	  secrets_dir: "/run/secrets"
//	  unlimited_api_key: "${secret:unlimited-key}"
//	rate_limit:
//	  window: 60
//	  max_requests: 10
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
