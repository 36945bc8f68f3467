package app

import (
	"fmt"
	"os"

	"streamflow/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, STREAMFLOW_DB_PATH env, or server.db_path in config")
	}

	cert := eff.Config.Server.TLS.CertFile
	key := eff.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if eff.Config.Limits.MinPaidChatCents < 0 {
		return fmt.Errorf("limits.min_paid_chat_cents must not be negative")
	}
	if eff.Config.Retention.Enabled && eff.Config.Retention.Period.Duration() <= 0 {
		return fmt.Errorf("retention enabled but retention.period is not set")
	}

	return nil
}
