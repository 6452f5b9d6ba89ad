package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "USE_SUPABASE", "DEFAULT_TAX_PERCENT", "KAFKA_BROKERS", "CORS_ALLOWED_ORIGINS", "CART_TTL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.UseSupabase)
	assert.True(t, cfg.DefaultTaxPercent.Equal(decimal.RequireFromString("19.25")))
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.CartTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("USE_SUPABASE", "false")
	t.Setenv("DEFAULT_TAX_PERCENT", "18")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.fluxia.biz")
	t.Setenv("CART_TTL", "not-a-duration")

	cfg := Load()
	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.UseSupabase)
	assert.True(t, cfg.DefaultTaxPercent.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://app.fluxia.biz"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.CartTTL, "invalid values fall back to the default")
}
