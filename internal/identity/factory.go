package identity

import (
	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/config"
)

// NewProvider picks the token resolver for cfg: the dev provider when DevAuth is
// on, local JWT verification when a secret is configured (revoking through the
// auth server when its URL is known), the auth server itself otherwise. It
// returns nil when identity is not configured.
func NewProvider(cfg *config.Config, log zerolog.Logger) Provider {
	var remote *GoTrue
	if cfg.AuthURL != "" && cfg.AuthAnonKey != "" {
		remote = NewGoTrue(cfg.AuthURL, cfg.AuthAnonKey, cfg.AuthServiceRoleKey)
	}
	switch {
	case cfg.DevAuth:
		if cfg.IsProduction() {
			log.Warn().Msg("dev auth ignored in production")
			break
		}
		log.Warn().Msg("dev auth enabled; accepting the local development token")
		return NewDevProvider()
	case cfg.AuthJWTSecret != "":
		if remote != nil {
			return NewJWTVerifier(cfg.AuthJWTSecret, remote)
		}
		return NewJWTVerifier(cfg.AuthJWTSecret, nil)
	}
	if remote != nil {
		return remote
	}
	log.Warn().Msg("identity provider not configured; all callers are anonymous")
	return nil
}

// NewDirectory returns the admin-backed account directory, or nil without the service-role key.
func NewDirectory(cfg *config.Config) Directory {
	if !cfg.AdminConfigured() {
		return nil
	}
	return NewGoTrue(cfg.AuthURL, cfg.AuthAnonKey, cfg.AuthServiceRoleKey)
}
