package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// secretRefRegex matches ${secret:name} references in configuration values.
var secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager resolves secrets through an ordered list of providers. The first
// provider that supports a name and returns a value wins.
type Manager struct {
	providers []SecretProvider
	logger    *slog.Logger
}

// NewManager creates a manager. A nil logger means slog.Default().
func NewManager(providers []SecretProvider, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{providers: providers, logger: logger}
}

// NewDefaultManager builds the standard chain: the secrets directory when
// dir is non-empty, then CALLISTO_SECRET_* environment variables.
func NewDefaultManager(dir string, logger *slog.Logger) (*Manager, error) {
	var providers []SecretProvider
	if dir != "" {
		fp, err := NewFileProvider(dir)
		if err != nil {
			return nil, err
		}
		providers = append(providers, fp)
	}
	providers = append(providers, NewEnvProvider(DefaultEnvPrefix))
	return NewManager(providers, logger), nil
}

// GetSecret retrieves a secret from the first provider that has it.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	var lastErr error
	for _, provider := range m.providers {
		if !provider.Supports(name) {
			continue
		}

		value, err := provider.GetSecret(ctx, name)
		if err != nil {
			lastErr = err
			m.logger.Debug("provider failed to get secret",
				"provider", provider.Provider(),
				"name", redactSecretName(name),
				"error", err,
			)
			continue
		}

		m.logger.Debug("secret resolved",
			"provider", provider.Provider(),
			"name", redactSecretName(name),
		)
		return value, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, lastErr)
	}
	return "", fmt.Errorf("secret not found: %q (no provider supports this secret)", name)
}

// HasReferences reports whether input contains a ${secret:name} reference.
func HasReferences(input string) bool {
	return secretRefRegex.MatchString(input)
}

// ResolveReferences replaces every ${secret:name} in input with its value.
// On failure the unresolved references are left in place and the error
// lists each of them.
func (m *Manager) ResolveReferences(ctx context.Context, input string) (string, error) {
	var errs []string

	output := secretRefRegex.ReplaceAllStringFunc(input, func(match string) string {
		name := secretRefRegex.FindStringSubmatch(match)[1]
		value, err := m.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err.Error())
			return match
		}
		return value
	})

	if len(errs) > 0 {
		return output, fmt.Errorf("failed to resolve secret references: %s", strings.Join(errs, "; "))
	}
	return output, nil
}

// ResolveAll resolves references in each of the given fields in place.
// Fields without references are left untouched.
func (m *Manager) ResolveAll(ctx context.Context, fields ...*string) error {
	var errs []string
	for _, f := range fields {
		if f == nil || !HasReferences(*f) {
			continue
		}
		resolved, err := m.ResolveReferences(ctx, *f)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		*f = resolved
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// redactSecretName keeps the first and last two characters of name.
func redactSecretName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
