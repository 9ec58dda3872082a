package app

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	httpapi "github.com/aussiebroadwan/notesauth/internal/auth/http"
	"github.com/aussiebroadwan/notesauth/pkg/httpx"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is read from an optional YAML file, then environment variables,
// then command-line flags. Later sources win.
type Config struct {
	SecretKey               string `yaml:"secret_key"`                 // Required outside dev: access token HMAC secret
	RefreshSecretKey        string `yaml:"refresh_secret_key"`         // Required outside dev: refresh token HMAC secret, must differ
	AccessTokenExpiresMin   int    `yaml:"access_token_expires_min"`   // Access token lifetime in minutes (default: 15)
	RefreshTokenExpiresDays int    `yaml:"refresh_token_expires_days"` // Refresh token lifetime in days (default: 7)

	DatabaseURL string `yaml:"database_url"` // sqlite:///path or postgres://... (default: sqlite:///./app.db)
	CORSOrigins string `yaml:"cors_origins"` // Comma separated (default: *)

	// Comma separated addresses or CIDRs of reverse proxies whose
	// X-Forwarded-For is believed. Empty means the socket peer is the client.
	TrustedProxies string `yaml:"trusted_proxies"`

	CookieDomain   string `yaml:"cookie_domain"`   // default: localhost
	CookieSecure   bool   `yaml:"cookie_secure"`   // default: false
	CookieSameSite string `yaml:"cookie_samesite"` // lax, strict or none (default: lax)

	PepperFile       string        `yaml:"pepper_file"`        // Optional: password pepper file, created on first start
	RedisAddr        string        `yaml:"redis_addr"`         // Optional: enables login lockout
	LoginMaxAttempts int           `yaml:"login_max_attempts"` // Failures before lockout (default: 5)
	LoginLockout     time.Duration `yaml:"login_lockout"`      // Lockout window (default: 15m)

	StoreTimeout         time.Duration `yaml:"store_timeout"`         // Per storage call bound (default: 5s)
	AuditRetention       time.Duration `yaml:"audit_retention"`       // Keep expired refresh records this long (default: 720h)
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval"` // default: 1h

	Env                 string        `yaml:"env"`                   // dev, staging, prod (default: dev)
	LogLevel            string        `yaml:"log_level"`             // debug, info, warn, error (default: info)
	LogFormat           string        `yaml:"log_format"`            // json, text (default: json)
	Port                int           `yaml:"port"`                  // default: 8080
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"` // default: 10s
}

// Store drivers selected by DatabaseURL.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		AccessTokenExpiresMin:   15,
		RefreshTokenExpiresDays: 7,
		DatabaseURL:             "sqlite:///./app.db",
		CORSOrigins:             "*",
		CookieDomain:            "localhost",
		CookieSameSite:          "lax",
		LoginMaxAttempts:        5,
		LoginLockout:            15 * time.Minute,
		StoreTimeout:            5 * time.Second,
		AuditRetention:          30 * 24 * time.Hour,
		HousekeepingInterval:    1 * time.Hour,
		Env:                     "dev",
		LogLevel:                "info",
		LogFormat:               "json",
		Port:                    8080,
		ShutdownGracePeriod:     10 * time.Second,
	}
}

// LoadConfig builds the configuration from args (without the program name).
// It returns pflag.ErrHelp when --help was requested.
func LoadConfig(args []string) (Config, error) {
	cfg := DefaultConfig()

	flags := pflag.NewFlagSet("notesauth", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("NOTESAUTH_CONFIG"), "path to a YAML config file")
	port := flags.Int("port", 0, "HTTP listen port (overrides PORT)")
	databaseURL := flags.String("database-url", "", "database URL (overrides DATABASE_URL)")
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", *configPath, err)
		}
	}

	cfg.applyEnv()

	if flags.Changed("port") {
		cfg.Port = *port
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = *databaseURL
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
	c.SecretKey = getEnvOrDefault("SECRET_KEY", c.SecretKey)
	c.RefreshSecretKey = getEnvOrDefault("REFRESH_SECRET_KEY", c.RefreshSecretKey)
	c.AccessTokenExpiresMin = getEnvIntOrDefault("ACCESS_TOKEN_EXPIRES_MIN", c.AccessTokenExpiresMin)
	c.RefreshTokenExpiresDays = getEnvIntOrDefault("REFRESH_TOKEN_EXPIRES_DAYS", c.RefreshTokenExpiresDays)

	c.DatabaseURL = getEnvOrDefault("DATABASE_URL", c.DatabaseURL)
	c.CORSOrigins = getEnvOrDefault("CORS_ORIGINS", c.CORSOrigins)
	c.TrustedProxies = getEnvOrDefault("TRUSTED_PROXIES", c.TrustedProxies)

	c.CookieDomain = getEnvOrDefault("COOKIE_DOMAIN", c.CookieDomain)
	c.CookieSecure = getEnvBoolOrDefault("COOKIE_SECURE", c.CookieSecure)
	c.CookieSameSite = getEnvOrDefault("COOKIE_SAMESITE", c.CookieSameSite)

	c.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", c.PepperFile)
	c.RedisAddr = getEnvOrDefault("AUTH_REDIS_ADDR", c.RedisAddr)
	c.LoginMaxAttempts = getEnvIntOrDefault("LOGIN_MAX_ATTEMPTS", c.LoginMaxAttempts)
	c.LoginLockout = getEnvDurationOrDefault("LOGIN_LOCKOUT", c.LoginLockout)

	c.StoreTimeout = getEnvDurationOrDefault("STORE_TIMEOUT", c.StoreTimeout)
	c.AuditRetention = getEnvDurationOrDefault("AUDIT_RETENTION", c.AuditRetention)
	c.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", c.HousekeepingInterval)

	c.Env = getEnvOrDefault("ENV", c.Env)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("LOG_FORMAT", c.LogFormat)
	c.Port = getEnvIntOrDefault("PORT", c.Port)
	c.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", c.ShutdownGracePeriod)
}

// Validate checks bounds and the signing secrets. It runs after development
// secrets have been filled in.
func (c Config) Validate() error {
	var errs []error

	if c.AccessTokenExpiresMin < 5 || c.AccessTokenExpiresMin > 1440 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRES_MIN must be between 5 and 1440, got %d", c.AccessTokenExpiresMin))
	}
	if c.RefreshTokenExpiresDays < 1 || c.RefreshTokenExpiresDays > 60 {
		errs = append(errs, fmt.Errorf("REFRESH_TOKEN_EXPIRES_DAYS must be between 1 and 60, got %d", c.RefreshTokenExpiresDays))
	}
	if _, err := httpapi.ParseSameSite(c.CookieSameSite); err != nil {
		errs = append(errs, fmt.Errorf("COOKIE_SAMESITE: %w", err))
	}
	if _, err := c.Proxies(); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if c.RefreshSecretKey == "" {
		errs = append(errs, errors.New("REFRESH_SECRET_KEY is required"))
	}
	if c.SecretKey != "" && c.SecretKey == c.RefreshSecretKey {
		errs = append(errs, errors.New("SECRET_KEY and REFRESH_SECRET_KEY must differ"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.LoginMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive, got %d", c.LoginMaxAttempts))
	}

	return errors.Join(errs...)
}

// AccessTTL is the access token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiresMin) * time.Minute
}

// RefreshTTL is the refresh token lifetime.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpiresDays) * 24 * time.Hour
}

// Proxies parses TrustedProxies.
func (c Config) Proxies() ([]netip.Prefix, error) {
	return httpx.ParseTrustedProxies(httpx.SplitOrigins(c.TrustedProxies))
}

// Database splits DatabaseURL into a driver and its target. postgres:// and
// postgresql:// URLs are passed through whole; anything else is a SQLite
// path with an optional sqlite:/// prefix.
func (c Config) Database() (driver, target string) {
	u := strings.TrimSpace(c.DatabaseURL)
	switch {
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres, u
	case strings.HasPrefix(u, "sqlite:///"):
		return DriverSQLite, strings.TrimPrefix(u, "sqlite:///")
	case strings.HasPrefix(u, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(u, "sqlite://")
	default:
		return DriverSQLite, u
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
