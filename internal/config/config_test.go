package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokokriya/storefront/internal/config"
	"github.com/tokokriya/storefront/internal/pricing"
)

func baseEnv() map[string]string {
	return map[string]string{
		"REDIS_URL":        "redis://localhost:6379",
		"JWT_SECRET":       "secret",
		"ORDER_BASE_URL":   "http://orders.internal",
		"CATALOG_BASE_URL": "http://catalog.internal",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "IDR", cfg.CurrencyCode)
	require.Equal(t, pricing.Money(500000), cfg.FreeShippingThreshold)
	require.Equal(t, pricing.Money(20000), cfg.FlatShippingRate)
	require.Equal(t, 3, cfg.UpstreamMaxAttempts)
}

func TestLoadRequiresRedis(t *testing.T) {
	env := baseEnv()
	env["REDIS_URL"] = ""
	_, err := config.LoadForTests(env)
	require.ErrorContains(t, err, "REDIS_URL")
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["FREE_SHIPPING_THRESHOLD"] = "750000"
	env["FLAT_SHIPPING_RATE"] = "15000"
	env["CART_TTL"] = "24h"
	env["CORS_ALLOWED_ORIGINS"] = "https://tokokriya.id, https://admin.tokokriya.id"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(750000), cfg.FreeShippingThreshold)
	require.Equal(t, pricing.Money(15000), cfg.FlatShippingRate)
	require.Equal(t, "24h0m0s", cfg.CartTTL.String())
	require.Equal(t, []string{"https://tokokriya.id", "https://admin.tokokriya.id"}, cfg.CORSAllowedOrigins)
}

func TestLoadBadNumbersFallBack(t *testing.T) {
	env := baseEnv()
	env["FREE_SHIPPING_THRESHOLD"] = "lots"
	env["UPSTREAM_MAX_ATTEMPTS"] = "-2"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(500000), cfg.FreeShippingThreshold)
	require.Equal(t, 3, cfg.UpstreamMaxAttempts)
}
