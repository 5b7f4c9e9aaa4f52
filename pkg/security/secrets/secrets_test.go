package secrets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, dir, name, value string, mode os.FileMode) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(value), mode); err != nil {
		t.Fatal(err)
	}
	// WriteFile is subject to umask; force the mode under test.
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
}

func TestFileProvider_GetSecret(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "unlimited-key", "sk-from-file\n", 0600)
	writeSecret(t, dir, "readonly-key", "sk-readonly", 0400)
	writeSecret(t, dir, "loose-key", "sk-loose", 0644)
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0700); err != nil {
		t.Fatal(err)
	}

	p, err := NewFileProvider(dir)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	tests := []struct {
		name    string
		secret  string
		want    string
		wantErr string
	}{
		{name: "trims whitespace", secret: "unlimited-key", want: "sk-from-file"},
		{name: "read only file", secret: "readonly-key", want: "sk-readonly"},
		{name: "insecure permissions", secret: "loose-key", wantErr: "insecure permissions"},
		{name: "missing", secret: "nope", wantErr: "not found"},
		{name: "directory", secret: "nested", wantErr: "not a regular file"},
		{name: "traversal", secret: "../etc/passwd", wantErr: "directory traversal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.GetSecret(context.Background(), tt.secret)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	if !p.Supports("unlimited-key") || p.Supports("nope") || p.Supports("nested") {
		t.Error("unexpected Supports result")
	}
}

func TestNewFileProvider_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "file", "x", 0600)

	if _, err := NewFileProvider(filepath.Join(dir, "file")); err == nil {
		t.Error("expected error for a file path")
	}
	if _, err := NewFileProvider(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for a missing path")
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("CALLISTO_SECRET_LIMITED_KEY", "sk-from-env")

	p := NewEnvProvider("")
	got, err := p.GetSecret(context.Background(), "limited-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sk-from-env" {
		t.Errorf("expected sk-from-env, got %q", got)
	}

	if _, err := p.GetSecret(context.Background(), "absent-key"); err == nil {
		t.Error("expected error for unset variable")
	}
}

func TestManager_FileBeforeEnv(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "shared", "from-file", 0600)
	t.Setenv("CALLISTO_SECRET_SHARED", "from-env")
	t.Setenv("CALLISTO_SECRET_ENV_ONLY", "env-only")

	m, err := NewDefaultManager(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{"shared": "from-file", "env-only": "env-only"}
	for name, want := range tests {
		got, err := m.GetSecret(context.Background(), name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got != want {
			t.Errorf("%s: expected %q, got %q", name, want, got)
		}
	}
}

func TestManager_ResolveReferences(t *testing.T) {
	t.Setenv("CALLISTO_SECRET_KEY_A", "sk-a")

	m, err := NewDefaultManager("", nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := m.ResolveReferences(context.Background(), "${secret:key-a}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sk-a" {
		t.Errorf("expected sk-a, got %q", got)
	}

	got, err = m.ResolveReferences(context.Background(), "prefix-${secret:missing}")
	if err == nil {
		t.Fatal("expected error for unresolved reference")
	}
	if got != "prefix-${secret:missing}" {
		t.Errorf("expected reference kept on failure, got %q", got)
	}
}

func TestManager_ResolveAll(t *testing.T) {
	t.Setenv("CALLISTO_SECRET_UNLIMITED", "sk-unlimited")

	m, err := NewDefaultManager("", nil)
	if err != nil {
		t.Fatal(err)
	}

	unlimited := "${secret:unlimited}"
	limited := "sk-literal"
	if err := m.ResolveAll(context.Background(), &unlimited, &limited, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unlimited != "sk-unlimited" || limited != "sk-literal" {
		t.Errorf("unexpected values %q, %q", unlimited, limited)
	}

	broken := "${secret:does-not-exist}"
	if err := m.ResolveAll(context.Background(), &broken); err == nil {
		t.Error("expected error")
	}
	if broken != "${secret:does-not-exist}" {
		t.Errorf("expected field untouched on failure, got %q", broken)
	}
}

func TestRedactSecretName(t *testing.T) {
	if got := redactSecretName("key"); got != "***" {
		t.Errorf("expected ***, got %q", got)
	}
	if got := redactSecretName("unlimited-key"); got != "un...ey" {
		t.Errorf("expected un...ey, got %q", got)
	}
}
