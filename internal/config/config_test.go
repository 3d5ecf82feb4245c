package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceEmbedded, cfg.Pricing.Source)
	assert.Equal(t, "base-pricing.csv", cfg.Pricing.BaseSheet)
	assert.Equal(t, "quantity-discounts.csv", cfg.Pricing.DiscountSheet)
	assert.Equal(t, 3, cfg.Pricing.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Pricing.RetryInitial)
	assert.Equal(t, 5*time.Second, cfg.Pricing.RetryMax)
	assert.Equal(t, 10*time.Second, cfg.Pricing.FetchTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PRICING_SOURCE", "http")
	t.Setenv("PRICING_BASE_URL", "https://cdn.example.com/pricing")
	t.Setenv("PRICING_RETRY_ATTEMPTS", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceHTTP, cfg.Pricing.Source)
	assert.Equal(t, "https://cdn.example.com/pricing", cfg.Pricing.BaseURL)
	assert.Equal(t, 5, cfg.Pricing.RetryAttempts)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("http without url", func(t *testing.T) {
		t.Setenv("PRICING_SOURCE", "http")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("postgres without credentials", func(t *testing.T) {
		t.Setenv("PRICING_SOURCE", "postgres")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown source", func(t *testing.T) {
		t.Setenv("PRICING_SOURCE", "ftp")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("zero attempts", func(t *testing.T) {
		t.Setenv("PRICING_RETRY_ATTEMPTS", "0")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("PRICING_FETCH_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}
