package main

import (
	"os"
	"path/filepath"
	"testing"
)

const testTemplate = "{% for m in messages %}{{ m.role }}: {{ m.content }}\n{% endfor %}"

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"LLAMA_SERVER_URL", "UNLIMITED_API_KEY", "LIMITED_API_KEY",
		"CALLISTO_PROXY_HOST", "CALLISTO_PROXY_PORT",
		"CALLISTO_BACKEND_BASE_URL", "CALLISTO_TEMPLATE_PATH",
		"CALLISTO_AUTH_UNLIMITED_API_KEY", "CALLISTO_AUTH_LIMITED_API_KEY", "CALLISTO_AUTH_SECRETS_DIR",
		"CALLISTO_RATE_LIMIT_WINDOW", "CALLISTO_RATE_LIMIT_MAX_REQUESTS",
		"CALLISTO_TELEMETRY_LOGGING_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// withConfigFile points the global --config flag at path for one test.
func withConfigFile(t *testing.T, path string) {
	t.Helper()
	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
}
