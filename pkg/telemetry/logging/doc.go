// Package logging builds the process-wide slog logger.
//
// # Overview
//
// New returns a *slog.Logger whose handler:
//   - writes JSON or text at the configured level
//   - adds request_id and model from the context to every record
//   - masks API keys and bearer tokens before anything is written
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:   "info",
//	    Format:  "json",
//	    Redact:  true,
//	    Secrets: []string{cfg.Auth.UnlimitedKey, cfg.Auth.LimitedKey},
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "request completed", "status", 200)
//	// {"level":"INFO","msg":"request completed","status":200,"request_id":"req-123"}
//
// # Redaction
//
// When Redact is set, string values are scrubbed of:
//
//   - anything that looks like an OpenAI-style key: sk-abc123 -> sk-***
//   - bearer tokens: Bearer abc123 -> Bearer ***
//   - every literal value listed in Config.Secrets
//
// Attributes whose key names a credential (api_key, authorization, token,
// secret, password) are masked wholesale.
package logging
