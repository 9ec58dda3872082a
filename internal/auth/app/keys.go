package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/notesauth/internal/auth/service"
	"github.com/aussiebroadwan/notesauth/pkg/cryptox"
)

// ensureSigningSecrets fills in missing signing secrets with random values
// when running in dev. Outside dev it leaves them for Validate to reject.
//
// Generated secrets live only in memory: every restart invalidates all
// outstanding sessions.
func ensureSigningSecrets(cfg *Config, logger *slog.Logger) error {
	if cfg.Env != "dev" {
		return nil
	}

	for _, s := range []struct {
		name  string
		value *string
	}{
		{"SECRET_KEY", &cfg.SecretKey},
		{"REFRESH_SECRET_KEY", &cfg.RefreshSecretKey},
	} {
		if *s.value != "" {
			continue
		}
		secret, err := cryptox.GenerateToken(cryptox.TokenSize512)
		if err != nil {
			return fmt.Errorf("generate %s: %w", s.name, err)
		}
		*s.value = secret
		logger.Warn("generated ephemeral signing secret; sessions will not survive a restart", "key", s.name)
	}

	return nil
}

// tokenConfig builds the immutable signing configuration for the session
// service.
func tokenConfig(cfg Config) service.TokenConfig {
	return service.TokenConfig{
		AccessSecret:  []byte(cfg.SecretKey),
		RefreshSecret: []byte(cfg.RefreshSecretKey),
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	}
}
