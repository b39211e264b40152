package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/tokokriya/storefront/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	CatalogBaseURL  string
	ShippingBaseURL string
	OrderBaseURL    string
	ContentBaseURL  string

	CurrencyCode          string
	FreeShippingThreshold pricing.Money
	FlatShippingRate      pricing.Money

	CartTTL         time.Duration
	ContentCacheTTL time.Duration
	AccessTokenTTL  time.Duration

	UpstreamTimeout     time.Duration
	UpstreamMaxAttempts int
	UpstreamBaseBackoff time.Duration

	RateLimitPerMinute int

	PprofUser     string
	PprofPassword string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CatalogBaseURL:  k.String("CATALOG_BASE_URL"),
		ShippingBaseURL: k.String("SHIPPING_BASE_URL"),
		OrderBaseURL:    k.String("ORDER_BASE_URL"),
		ContentBaseURL:  k.String("CONTENT_BASE_URL"),

		CurrencyCode:          valueOrDefault(k.String("CURRENCY_CODE"), "IDR"),
		FreeShippingThreshold: parseMoney(k.String("FREE_SHIPPING_THRESHOLD"), 500000),
		FlatShippingRate:      parseMoney(k.String("FLAT_SHIPPING_RATE"), 20000),

		CartTTL:         parseDuration(k.String("CART_TTL"), "168h"),
		ContentCacheTTL: parseDuration(k.String("CONTENT_CACHE_TTL"), "10m"),
		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),

		UpstreamTimeout:     parseDuration(k.String("UPSTREAM_TIMEOUT"), "5s"),
		UpstreamMaxAttempts: parseInt(k.String("UPSTREAM_MAX_ATTEMPTS"), 3),
		UpstreamBaseBackoff: parseDuration(k.String("UPSTREAM_BASE_BACKOFF"), "100ms"),

		RateLimitPerMinute: parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 120),

		PprofUser:     k.String("PPROF_USER"),
		PprofPassword: k.String("PPROF_PASSWORD"),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.OrderBaseURL == "" {
		return nil, errors.New("ORDER_BASE_URL is required")
	}
	if cfg.CatalogBaseURL == "" {
		return nil, errors.New("CATALOG_BASE_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	n, err := strconv.Atoi(base)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseMoney(value string, fallback pricing.Money) pricing.Money {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	n, err := strconv.ParseInt(base, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return pricing.Money(n)
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
