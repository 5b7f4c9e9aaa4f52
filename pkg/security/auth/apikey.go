package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// Gate validates API keys against the two configured keys and applies the
// quota to the limited one.
type Gate struct {
	unlimited []byte
	limited   []byte
	ledger    Admitter
}

// NewGate creates a gate. At least one key must be non-empty.
func NewGate(unlimitedKey, limitedKey string, ledger Admitter) (*Gate, error) {
	if unlimitedKey == "" && limitedKey == "" {
		return nil, errors.New("at least one API key must be configured")
	}
	if limitedKey != "" && ledger == nil {
		return nil, errors.New("a rate limit ledger is required for the limited key")
	}
	return &Gate{
		unlimited: []byte(unlimitedKey),
		limited:   []byte(limitedKey),
		ledger:    ledger,
	}, nil
}

// Authorize checks a raw Authorization header value.
func (g *Gate) Authorize(header string) (Key, error) {
	if header == "" {
		return Key{}, ErrMissingKey
	}
	value := strings.TrimPrefix(header, "Bearer ")
	if value == "" {
		return Key{}, ErrMissingKey
	}

	// Both comparisons always run.
	isUnlimited := matches(g.unlimited, value)
	isLimited := matches(g.limited, value)

	switch {
	case isUnlimited:
		return Key{value: value, Tier: TierUnlimited}, nil
	case isLimited:
		return Key{value: value, Tier: TierLimited}, nil
	default:
		return Key{}, ErrInvalidKey
	}
}

// Admit applies the quota. Unlimited keys always pass and leave the ledger
// untouched.
func (g *Gate) Admit(k Key) error {
	if k.Tier != TierLimited {
		return nil
	}
	return g.ledger.Admit(k.value)
}

func matches(configured []byte, presented string) bool {
	if len(configured) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(configured, []byte(presented)) == 1
}
