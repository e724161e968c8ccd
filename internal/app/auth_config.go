package app

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/careerhub/careerhub/internal/auth"
	"github.com/careerhub/careerhub/internal/database"
	"github.com/careerhub/careerhub/internal/services"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// LockoutPolicy converts AuthConfig into the user service lockout policy.
func (c AuthConfig) LockoutPolicy() services.LockoutPolicy {
	policy := services.DefaultLockoutPolicy
	if c.Local.LockoutThreshold > 0 {
		policy.Threshold = c.Local.LockoutThreshold
	}
	if c.Local.LockoutDuration > 0 {
		policy.Duration = c.Local.LockoutDuration
	}
	return policy
}

// OIDCAuthenticatorConfig converts AuthConfig into the OIDC authenticator parameters.
func (c AuthConfig) OIDCAuthenticatorConfig() auth.OIDCConfig {
	return auth.OIDCConfig{
		Issuer:       c.OIDC.Issuer,
		ClientID:     c.OIDC.ClientID,
		ClientSecret: c.OIDC.ClientSecret,
		RedirectURL:  c.OIDC.RedirectURL,
		Scopes:       c.OIDC.Scopes,
	}
}

// StateCodecKey decodes the OIDC state key into raw bytes. Hex input is
// decoded first so generated keys round-trip; anything else is used as-is
// to keep operator-provided keys working.
func (c AuthConfig) StateCodecKey() ([]byte, error) {
	raw := strings.TrimSpace(c.OIDC.StateKey)
	if raw == "" {
		return nil, errors.New("auth.oidc.state_key must be configured")
	}
	if decoded, err := hex.DecodeString(raw); err == nil {
		return decoded, nil
	}
	return []byte(raw), nil
}

// DatabaseOptions converts DatabaseConfig into the database package representation.
func (c DatabaseConfig) DatabaseOptions() database.Config {
	cfg := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch {
	case c.Postgres.Enabled:
		cfg.Driver = "postgres"
		cfg.Host = c.Postgres.Host
		cfg.Port = c.Postgres.Port
		cfg.Name = c.Postgres.Database
		cfg.User = c.Postgres.Username
		cfg.Password = c.Postgres.Password
	case c.MySQL.Enabled:
		cfg.Driver = "mysql"
		cfg.Host = c.MySQL.Host
		cfg.Port = c.MySQL.Port
		cfg.Name = c.MySQL.Database
		cfg.User = c.MySQL.Username
		cfg.Password = c.MySQL.Password
	}

	return cfg
}
