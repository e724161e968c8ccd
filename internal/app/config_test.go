package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careerhub/careerhub/internal/auth"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, 300, cfg.Server.RateLimit.MaxRequests)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/careerhub.sqlite", cfg.Database.Path)

	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 5*time.Second, cfg.Cache.Redis.Timeout)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)

	require.Equal(t, "careerhub", cfg.Auth.JWT.Issuer)
	require.Equal(t, 15*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 5, cfg.Auth.Local.LockoutThreshold)
	require.Equal(t, 15*time.Minute, cfg.Auth.Local.LockoutDuration)
	require.False(t, cfg.Auth.OIDC.Enabled)
	require.Equal(t, 10*time.Minute, cfg.Auth.OIDC.StateTTL)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@every 10m", cfg.Maintenance.Schedule)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{
			JWT: JWTSettings{
				Secret: "secret",
				Issuer: "issuer",
				TTL:    30 * time.Minute,
			},
			Local: LocalAuthSettings{
				LockoutThreshold: 4,
				LockoutDuration:  10 * time.Minute,
			},
		},
	}

	jwtCfg := cfg.Auth.JWTServiceConfig()
	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, jwtCfg)

	policy := cfg.Auth.LockoutPolicy()
	require.Equal(t, 4, policy.Threshold)
	require.Equal(t, 10*time.Minute, policy.Duration)
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.DefaultAccessTokenTTL, jwtCfg.AccessTokenTTL)

	policy := cfg.LockoutPolicy()
	require.Equal(t, 5, policy.Threshold)
	require.Equal(t, 15*time.Minute, policy.Duration)
}

func TestDatabaseOptionsHostDrivers(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: "sqlite",
		Path:   "./data/test.sqlite",
		Postgres: DBAuthConfig{
			Enabled:  true,
			Host:     "db.example.com",
			Port:     5433,
			Database: "careerhub",
			Username: "svc",
			Password: "pw",
		},
	}

	opts := cfg.DatabaseOptions()
	require.Equal(t, "postgres", opts.Driver)
	require.Equal(t, "db.example.com", opts.Host)
	require.Equal(t, 5433, opts.Port)
	require.Equal(t, "careerhub", opts.Name)
}

func TestApplyRuntimeDefaultsGeneratesSecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.OIDC.Enabled = true

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.True(t, generated["auth.jwt.secret"])
	require.True(t, generated["auth.oidc.state_key"])
	require.NotEmpty(t, cfg.Auth.JWT.Secret)
	require.Len(t, cfg.Auth.OIDC.StateKey, stateKeyBytes*2)

	// A configured secret is left alone.
	again, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, again)
}
