package secrets

import "context"

// SecretProvider looks up a secret value by name.
type SecretProvider interface {
	// GetSecret returns the named secret or an error if it is missing or
	// unreadable.
	GetSecret(ctx context.Context, name string) (string, error)

	// Provider returns the provider name ("file", "env").
	Provider() string

	// Supports reports whether this provider can hold the named secret.
	Supports(name string) bool
}
