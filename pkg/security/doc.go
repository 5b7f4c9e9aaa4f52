/*
Package security groups callisto's access control.

# Authentication

Package auth implements the admission gate in front of the completion
endpoints. Callers present one of two API keys as "Authorization: Bearer
<key>". The unlimited key is always admitted; the limited key is admitted
while the rate-limit ledger has room in its sliding window:

	gate, err := auth.NewGate(cfg.Auth.UnlimitedKey, cfg.Auth.LimitedKey, ledger)
	if err != nil {
		return err
	}
	mux.Handle("POST /v1/completions", auth.NewMiddleware(gate, collector).Handle(h))

# Secrets

Package secrets resolves ${secret:name} references in the configured keys
from a secrets directory or CALLISTO_SECRET_* environment variables, so keys
can stay out of config files.
*/
package security
