package auth

import "errors"

// Tier identifies which configured key a request presented.
type Tier string

const (
	// TierUnlimited is never rate limited.
	TierUnlimited Tier = "unlimited"

	// TierLimited is subject to the sliding-window quota.
	TierLimited Tier = "limited"
)

// Authentication failures. Their client-facing wording lives in the
// middleware.
var (
	ErrMissingKey = errors.New("api key required")
	ErrInvalidKey = errors.New("invalid api key")
)

// Key is an authenticated API key. Its raw value is only reachable inside
// this package.
type Key struct {
	value string
	Tier  Tier
}

// Redacted returns a loggable form of the key, keeping at most a short
// prefix.
func (k Key) Redacted() string {
	const keep = 3
	if len(k.value) <= keep*2 {
		return "***"
	}
	return k.value[:keep] + "***"
}

// String implements fmt.Stringer without leaking the key.
func (k Key) String() string {
	return string(k.Tier) + ":" + k.Redacted()
}

// Admitter admits or rejects requests for a key. *ratelimit.Ledger
// satisfies it.
type Admitter interface {
	Admit(key string) error
}

// Recorder receives admission outcomes for metrics. A nil Recorder is
// allowed.
type Recorder interface {
	RecordAuthFailure(reason string)
	RecordRateLimited(tier string)
}
