package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Storage drivers accepted by DB_DRIVER.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverSpanner  = "spanner"
)

// Config holds the configuration for the archive service.
// Environment variables are parsed from the MUSUI_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string      `envconfig:"BUILD_TARGET" default:"cloud-dev"`
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	DBDriver            string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN         string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath          string `envconfig:"SQLITE_PATH" default:""`
	SpannerDatabase     string `envconfig:"SPANNER_DATABASE" default:""`
	SpannerEmulatorHost string `envconfig:"SPANNER_EMULATOR_HOST" default:""`
	AutoMigrate         bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// Identity provider (GoTrue-compatible)
	AuthURL            string `envconfig:"AUTH_URL" default:""`
	AuthAnonKey        string `envconfig:"AUTH_ANON_KEY" default:""`
	AuthServiceRoleKey string `envconfig:"AUTH_SERVICE_ROLE_KEY" default:""`
	AuthJWTSecret      string `envconfig:"AUTH_JWT_SECRET" default:""`
	DevAuth            bool   `envconfig:"DEV_AUTH" default:"false"`
	SessionCookie      string `envconfig:"SESSION_COOKIE" default:"musui-auth-token"`

	// HTTP edge
	CORSOrigins    []string `envconfig:"CORS_ORIGINS"`
	RateLimitRPS   float64  `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int      `envconfig:"RATE_LIMIT_BURST" default:"20"`
	RedisAddr      string   `envconfig:"REDIS_ADDR" default:""`
	MaxPhotoBytes  int      `envconfig:"MAX_PHOTO_BYTES" default:"5242880"`

	CatalogPath          string `envconfig:"CATALOG_PATH" default:""`
	LocalStoreTTLMinutes int    `envconfig:"LOCAL_STORE_TTL_MINUTES" default:"120"`

	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// placeholder values copied from sample env files count as unset
var placeholders = []string{"your-project-ref", "your-anon-key", "your-service-role-key"}

func isPlaceholder(v string) bool {
	for _, p := range placeholders {
		if strings.Contains(v, p) {
			return true
		}
	}
	return false
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	switch c.BuildTarget {
	case "local", "cloud-dev", "cloud":
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	for _, v := range []*string{&c.AuthURL, &c.AuthAnonKey, &c.AuthServiceRoleKey, &c.PostgresDSN} {
		if isPlaceholder(*v) {
			*v = ""
		}
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		switch {
		case c.PostgresDSN != "":
			c.DBDriver = DriverPostgres
		case c.SpannerDatabase != "":
			c.DBDriver = DriverSpanner
		case c.BuildTarget == "local":
			c.DBDriver = DriverSQLite
		default:
			c.DBDriver = DriverNone
		}
	}
	if c.DBDriver == DriverSQLite && c.SQLitePath == "" {
		c.SQLitePath = "./data/musui.db"
	}

	allowedDB := map[string]bool{DriverNone: true, DriverPostgres: true, DriverSQLite: true, DriverSpanner: true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.SessionCookie == "" {
		c.SessionCookie = "musui-auth-token"
	}
	return nil
}

// New creates a new Config by parsing environment variables
// prefixed with MUSUI_, e.g. MUSUI_HTTP_PORT, MUSUI_POSTGRES_DSN.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MUSUI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Bool("auth_configured", cfg.AuthConfigured()).
		Bool("admin_configured", cfg.AdminConfigured()).
		Bool("dev_auth", cfg.DevAuth).
		Str("redis", present(cfg.RedisAddr)).
		Str("postgres_dsn_present", present(cfg.PostgresDSN)).
		Msg("Configuration loaded")

	return &cfg, nil
}

func present(v string) string {
	if v != "" {
		return "true"
	}
	return "false"
}

// NewForTesting creates a config with no storage or identity backend.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "cloud-dev",
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		LogLevel:                  "debug",
		DBDriver:                  DriverNone,
		SessionCookie:             "musui-auth-token",
		RateLimitRPS:              1000,
		RateLimitBurst:            1000,
		MaxPhotoBytes:             5 << 20,
		LocalStoreTTLMinutes:      120,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// AuthConfigured reports whether tokens can be verified.
func (c *Config) AuthConfigured() bool {
	return c.AuthJWTSecret != "" || (c.AuthURL != "" && c.AuthAnonKey != "") || c.DevAuth
}

// AdminConfigured reports whether the service-role key needed for uniqueness checks is present.
func (c *Config) AdminConfigured() bool {
	return c.AuthURL != "" && c.AuthServiceRoleKey != ""
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) LocalStoreTTL() time.Duration {
	return time.Duration(c.LocalStoreTTLMinutes) * time.Minute
}

func (c *Config) HealthInterval() time.Duration {
	if c.HealthIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}

func (c *Config) HealthProbeTimeout() time.Duration {
	return time.Duration(c.HealthProbeTimeoutSeconds) * time.Second
}
