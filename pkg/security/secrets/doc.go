// Package secrets resolves ${secret:name} references in configuration
// values, so API keys need not be written into config files.
//
// Names are looked up first in a secrets directory (one file per secret,
// mode 0600 or 0400, the layout of Kubernetes and Docker secret mounts) and
// then in CALLISTO_SECRET_<NAME> environment variables:
//
//	auth:
//	  secrets_dir: /run/secrets
//	  unlimited_api_key: ${secret:unlimited-key}
//
//	mgr, err := secrets.NewDefaultManager(cfg.Auth.SecretsDir, logger)
//	if err != nil {
//		return err
//	}
//	err = mgr.ResolveAll(ctx, &cfg.Auth.UnlimitedKey, &cfg.Auth.LimitedKey)
//
// Resolution happens once at startup. Secret values never appear in logs;
// secret names are logged in redacted form.
package secrets
