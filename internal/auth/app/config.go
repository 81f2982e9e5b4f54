package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Key material, base64 PKCS#8 private and X.509 SPKI public DER. The
	// *File variants name files holding the same text.
	PrivateKey     string
	PublicKey      string
	PrivateKeyFile string
	PublicKeyFile  string

	AccessTTL  time.Duration // default: 15m
	RefreshTTL time.Duration // default: 168h

	DatabaseFile string // default: ./auth.db
	PepperFile   string // default: ./pepper

	CookieSecure   bool
	CookieDomain   string
	CookieSameSite http.SameSite // lax, strict or none (default: lax)

	BootstrapUsername string
	BootstrapPassword string
	BootstrapRoles    []string // default: ADMIN,USER

	Env                  string        // dev, staging, prod (default: dev)
	LogLevel             string        // debug, info, warn, error (default: info)
	LogFormat            string        // json, text (default: json)
	Port                 int           // default: 8080
	ShutdownGracePeriod  time.Duration // default: 10s
	HousekeepingInterval time.Duration // default: 1h

	RateLimitStrict   httpx.RateLimitConfig
	RateLimitModerate httpx.RateLimitConfig
	RateLimitPublic   httpx.RateLimitConfig
}

// LoadConfig reads configuration from the environment. When path is set the
// YAML file is read first and environment variables override it. Keys in the
// file use the lower-case variable names, e.g. auth_access_token_ttl.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetDefault("auth_access_token_ttl", "15m")
	v.SetDefault("auth_refresh_token_ttl", "168h")
	v.SetDefault("auth_database_file", "auth.db")
	v.SetDefault("auth_pepper_file", "pepper")
	v.SetDefault("auth_cookie_secure", false)
	v.SetDefault("auth_cookie_samesite", "lax")
	v.SetDefault("auth_bootstrap_roles", "ADMIN,USER")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("port", 8080)
	v.SetDefault("shutdown_grace_period", "10s")
	v.SetDefault("housekeeping_interval", "1h")
	setRateLimitDefaults(v, "strict", httpx.StrictLimit)
	setRateLimitDefaults(v, "moderate", httpx.ModerateLimit)
	setRateLimitDefaults(v, "public", httpx.PublicLimit)

	v.AutomaticEnv()

	cfg := Config{
		PrivateKey:        strings.TrimSpace(v.GetString("auth_jwt_private_key")),
		PublicKey:         strings.TrimSpace(v.GetString("auth_jwt_public_key")),
		PrivateKeyFile:    v.GetString("auth_jwt_private_key_file"),
		PublicKeyFile:     v.GetString("auth_jwt_public_key_file"),
		DatabaseFile:      v.GetString("auth_database_file"),
		PepperFile:        v.GetString("auth_pepper_file"),
		CookieSecure:      v.GetBool("auth_cookie_secure"),
		CookieDomain:      v.GetString("auth_cookie_domain"),
		BootstrapUsername: strings.TrimSpace(v.GetString("auth_bootstrap_username")),
		BootstrapPassword: v.GetString("auth_bootstrap_password"),
		BootstrapRoles:    splitList(v.GetString("auth_bootstrap_roles")),
		Env:               v.GetString("env"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		Port:              v.GetInt("port"),
	}

	var errs []error
	duration := func(key string) time.Duration {
		d, err := ParseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", strings.ToUpper(key), err))
		}
		return d
	}
	cfg.AccessTTL = duration("auth_access_token_ttl")
	cfg.RefreshTTL = duration("auth_refresh_token_ttl")
	cfg.ShutdownGracePeriod = duration("shutdown_grace_period")
	cfg.HousekeepingInterval = duration("housekeeping_interval")

	sameSite, err := parseSameSite(v.GetString("auth_cookie_samesite"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.CookieSameSite = sameSite

	cfg.RateLimitStrict = rateLimit(v, "strict")
	cfg.RateLimitModerate = rateLimit(v, "moderate")
	cfg.RateLimitPublic = rateLimit(v, "public")

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.PrivateKey == "" && c.PrivateKeyFile == "" {
		errs = append(errs, errors.New("AUTH_JWT_PRIVATE_KEY or AUTH_JWT_PRIVATE_KEY_FILE is required"))
	}
	if c.PublicKey == "" && c.PublicKeyFile == "" {
		errs = append(errs, errors.New("AUTH_JWT_PUBLIC_KEY or AUTH_JWT_PUBLIC_KEY_FILE is required"))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTTL < time.Second {
		errs = append(errs, errors.New("AUTH_REFRESH_TOKEN_TTL must be at least 1s"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.CookieSameSite == http.SameSiteNoneMode && !c.CookieSecure {
		errs = append(errs, errors.New("AUTH_COOKIE_SAMESITE=none requires AUTH_COOKIE_SECURE"))
	}
	if c.BootstrapPassword != "" && c.BootstrapUsername == "" {
		errs = append(errs, errors.New("AUTH_BOOTSTRAP_PASSWORD set without AUTH_BOOTSTRAP_USERNAME"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ParseDuration accepts a Go duration ("15m") or a bare integer number of
// milliseconds ("900000").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("AUTH_COOKIE_SAMESITE: unknown mode %q", s)
	}
}

// Rate limit profiles follow RATELIMIT_{PROFILE}_{REQUESTS,WINDOW_SEC,BURST}.
// Setting REQUESTS to 0 disables the profile.
func setRateLimitDefaults(v *viper.Viper, profile string, def httpx.RateLimitConfig) {
	prefix := "ratelimit_" + profile
	v.SetDefault(prefix+"_requests", def.RequestsPerWindow)
	v.SetDefault(prefix+"_window_sec", int(def.Window/time.Second))
	v.SetDefault(prefix+"_burst", def.Burst)
}

func rateLimit(v *viper.Viper, profile string) httpx.RateLimitConfig {
	prefix := "ratelimit_" + profile
	return httpx.RateLimitConfig{
		RequestsPerWindow: v.GetInt(prefix + "_requests"),
		Window:            time.Duration(v.GetInt(prefix+"_window_sec")) * time.Second,
		Burst:             v.GetInt(prefix + "_burst"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
