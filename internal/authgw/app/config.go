package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/pkg/jwtx"
)

const (
	ProviderGoTrue = "gotrue"
	ProviderMemory = "memory"

	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreNone     = "none"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Port                 int           // HTTP server port (default: 8080)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	AuthProvider string // gotrue or memory (default: gotrue)
	GoTrueURL    string // Required for gotrue: auth API root
	GoTrueAPIKey string // Required for gotrue: project anon key
	AppOrigin    string // Required: SPA origin used for email redirects

	DeviceStore  string // sqlite, postgres, redis or none (default: sqlite)
	DatabaseFile string // SQLite file (default: ./authgw.db)
	PostgresDSN  string
	RedisURL     string

	DeviceTrustTTL     time.Duration // default: 30 days
	DeviceCookieSecret string        // Required: >= 32 bytes, signs the device_trust cookie
	SessionIdleTimeout time.Duration // default: 30m
	CORSAllowedOrigins []string      // default: AppOrigin

	MemoryAutoConfirm bool // memory provider only: skip email confirmation
}

// LoadConfig reads the environment, after loading a .env file when one
// exists.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := Config{
		Port:                 getEnvIntOrDefault("PORT", 8080),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		AuthProvider: strings.ToLower(getEnvOrDefault("AUTH_PROVIDER", ProviderGoTrue)),
		GoTrueURL:    os.Getenv("GOTRUE_URL"),
		GoTrueAPIKey: os.Getenv("GOTRUE_API_KEY"),
		AppOrigin:    strings.TrimSuffix(os.Getenv("APP_ORIGIN"), "/"),

		DeviceStore:  strings.ToLower(getEnvOrDefault("DEVICE_STORE", StoreSQLite)),
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "authgw.db"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisURL:     os.Getenv("REDIS_URL"),

		DeviceTrustTTL:     getEnvDurationOrDefault("DEVICE_TRUST_TTL", domain.DefaultDeviceTrustTTL),
		DeviceCookieSecret: os.Getenv("DEVICE_COOKIE_SECRET"),
		SessionIdleTimeout: getEnvDurationOrDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		MemoryAutoConfirm: getEnvBoolOrDefault("MEMORY_AUTO_CONFIRM", false),
	}

	if len(cfg.CORSAllowedOrigins) == 0 && cfg.AppOrigin != "" {
		cfg.CORSAllowedOrigins = []string{cfg.AppOrigin}
	}

	return cfg
}

// Validate rejects missing or contradictory settings.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Port <= 0 || c.Port > 65535 {
		fail("PORT %d out of range", c.Port)
	}

	switch c.AuthProvider {
	case ProviderGoTrue:
		if c.GoTrueURL == "" || c.GoTrueAPIKey == "" {
			fail("AUTH_PROVIDER=gotrue needs GOTRUE_URL and GOTRUE_API_KEY")
		}
	case ProviderMemory:
		if c.Env == "prod" {
			fail("AUTH_PROVIDER=memory is not allowed with ENV=prod")
		}
	default:
		fail("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if u, err := url.Parse(c.AppOrigin); c.AppOrigin == "" || err != nil || u.Scheme == "" || u.Host == "" {
		fail("APP_ORIGIN must be an absolute URL, got %q", c.AppOrigin)
	}

	switch c.DeviceStore {
	case StoreSQLite:
		if c.DatabaseFile == "" {
			fail("DEVICE_STORE=sqlite needs DATABASE_FILE")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			fail("DEVICE_STORE=postgres needs POSTGRES_DSN")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			fail("DEVICE_STORE=redis needs REDIS_URL")
		}
	case StoreNone:
	default:
		fail("unknown DEVICE_STORE %q", c.DeviceStore)
	}

	if len(c.DeviceCookieSecret) < jwtx.MinSecretSize {
		fail("DEVICE_COOKIE_SECRET must be at least %d bytes", jwtx.MinSecretSize)
	}
	if c.DeviceTrustTTL <= 0 {
		fail("DEVICE_TRUST_TTL must be positive")
	}
	if c.SessionIdleTimeout <= 0 {
		fail("SESSION_IDLE_TIMEOUT must be positive")
	}

	return errors.Join(errs...)
}

// SecureCookies is true unless running in dev over plain http.
func (c Config) SecureCookies() bool {
	return c.Env != "dev" || strings.HasPrefix(c.AppOrigin, "https://")
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

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
