package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "key123")
	t.Setenv("BINANCE_API_SECRET", "")
	t.Setenv("BINANCE_SECRET_KEY", "legacy-secret")
	t.Setenv("BINANCE_TESTNET", "true")
	t.Setenv("DEFAULT_LEVERAGE", "")
	t.Setenv("HEALTH_PORT", "9999")

	cfg := Load()
	assert.Equal(t, "key123", cfg.BinanceAPIKey)
	assert.Equal(t, "legacy-secret", cfg.BinanceAPISecret)
	assert.True(t, cfg.IsTestnet)
	assert.Equal(t, 20, cfg.DefaultLeverage)
	assert.Equal(t, "9999", cfg.HealthPort)
}

func TestEnvInt_FallsBackOnInvalid(t *testing.T) {
	t.Setenv("BAD_INT", "not-a-number")
	assert.Equal(t, 7, envInt("BAD_INT", 7))
	os.Unsetenv("BAD_INT")
	assert.Equal(t, 7, envInt("BAD_INT", 7))
}

func TestEnvOr_UsesDefaultWhenUnset(t *testing.T) {
	os.Unsetenv("MISSING_VALUE")
	assert.Equal(t, "fallback", envOr("MISSING_VALUE", "fallback"))
}
