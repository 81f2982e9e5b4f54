package app_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/app"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := app.LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 168*time.Hour, cfg.RefreshTTL)
	require.Equal(t, "auth.db", cfg.DatabaseFile)
	require.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	require.Equal(t, []string{"ADMIN", "USER"}, cfg.BootstrapRoles)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, 5, cfg.RateLimitStrict.RequestsPerWindow)
	require.Equal(t, time.Minute, cfg.RateLimitStrict.Window)

	// No key material configured.
	require.ErrorIs(t, cfg.Validate(), app.ErrInvalidConfig)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("AUTH_JWT_PRIVATE_KEY", " priv ")
	t.Setenv("AUTH_JWT_PUBLIC_KEY_FILE", "/keys/pub")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "60000")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL", "2h")
	t.Setenv("AUTH_COOKIE_SECURE", "true")
	t.Setenv("AUTH_COOKIE_SAMESITE", "None")
	t.Setenv("AUTH_BOOTSTRAP_USERNAME", "root")
	t.Setenv("AUTH_BOOTSTRAP_ROLES", " ADMIN , ,AUDITOR")
	t.Setenv("PORT", "9090")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "0")

	cfg, err := app.LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "priv", cfg.PrivateKey)
	require.Equal(t, "/keys/pub", cfg.PublicKeyFile)
	require.Equal(t, time.Minute, cfg.AccessTTL)
	require.Equal(t, 2*time.Hour, cfg.RefreshTTL)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, http.SameSiteNoneMode, cfg.CookieSameSite)
	require.Equal(t, "root", cfg.BootstrapUsername)
	require.Equal(t, []string{"ADMIN", "AUDITOR"}, cfg.BootstrapRoles)
	require.Equal(t, 9090, cfg.Port)
	require.False(t, cfg.RateLimitStrict.Enabled())
	require.True(t, cfg.RateLimitModerate.Enabled())

	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokengate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth_access_token_ttl: 5m\nport: 7000\n"), 0o600))
	t.Setenv("PORT", "7001")

	cfg, err := app.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.Equal(t, 7001, cfg.Port, "environment overrides the file")

	_, err = app.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("AUTH_ACCESS_TOKEN_TTL", "soon")
		_, err := app.LoadConfig("")
		require.ErrorIs(t, err, app.ErrInvalidConfig)
		require.ErrorContains(t, err, "AUTH_ACCESS_TOKEN_TTL")
	})

	t.Run("bad samesite", func(t *testing.T) {
		t.Setenv("AUTH_COOKIE_SAMESITE", "sometimes")
		_, err := app.LoadConfig("")
		require.ErrorIs(t, err, app.ErrInvalidConfig)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := app.Config{
		PrivateKey: "a", PublicKey: "b",
		AccessTTL: time.Minute, RefreshTTL: time.Hour,
		Port: 8080, CookieSameSite: http.SameSiteLaxMode,
	}
	require.NoError(t, valid.Validate())

	tests := map[string]func(*app.Config){
		"no private key":     func(c *app.Config) { c.PrivateKey = "" },
		"no public key":      func(c *app.Config) { c.PublicKey = "" },
		"zero access ttl":    func(c *app.Config) { c.AccessTTL = 0 },
		"negative refresh":   func(c *app.Config) { c.RefreshTTL = -time.Second },
		"sub-second refresh": func(c *app.Config) { c.RefreshTTL = 999 * time.Millisecond },
		"port out of range":  func(c *app.Config) { c.Port = 70000 },
		"insecure samesite":  func(c *app.Config) { c.CookieSameSite = http.SameSiteNoneMode },
		"password, no user":  func(c *app.Config) { c.BootstrapPassword = "x" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), app.ErrInvalidConfig)
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"900000": 15 * time.Minute,
		"0":      0,
		"15m":    15 * time.Minute,
		" 1h30m": 90 * time.Minute,
		"250ms":  250 * time.Millisecond,
	}
	for in, want := range tests {
		got, err := app.ParseDuration(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := app.ParseDuration("fifteen")
	require.Error(t, err)
}
