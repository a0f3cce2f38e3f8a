package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ZOTA_MODE", "test")
	t.Setenv("ZOTA_TEST_MERCHANT_ID", "MERCHANT-TEST")
	t.Setenv("ZOTA_TEST_MERCHANT_SECRET_KEY", "test-secret")
	t.Setenv("ZOTA_TEST_ENDPOINT_USD", "503364")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example.com")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.True(t, cfg.TestMode())
	assert.Equal(t, "MERCHANT-TEST", cfg.ActiveMerchantID())
	assert.Equal(t, "test-secret", cfg.ActiveMerchantSecretKey())
	assert.Equal(t, map[string]string{"USD": "503364"}, cfg.ActiveEndpoints())
	assert.Equal(t, 4*time.Hour, cfg.ExpirationWindow)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, int32(50), cfg.SweepBatchSize)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestLoadOverrides(t *testing.T) {
	setValidEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("EXPIRATION_WINDOW", "2h")
	t.Setenv("SWEEP_INTERVAL", "30m")
	t.Setenv("SWEEP_BATCH_SIZE", "25")
	t.Setenv("ZOTA_TEST_ENDPOINT_EUR", "503365")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 2*time.Hour, cfg.ExpirationWindow)
	assert.Equal(t, 30*time.Minute, cfg.SweepInterval)
	assert.Equal(t, int32(25), cfg.SweepBatchSize)
	assert.Equal(t, "503365", cfg.ActiveEndpoints()["EUR"])
}

func TestLoadLiveModeUsesLiveCredentials(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ZOTA_MODE", "live")
	t.Setenv("ZOTA_MERCHANT_ID", "MERCHANT-LIVE")
	t.Setenv("ZOTA_MERCHANT_SECRET_KEY", "live-secret")
	t.Setenv("ZOTA_ENDPOINT_USD", "100200")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.TestMode())
	assert.Equal(t, "MERCHANT-LIVE", cfg.ActiveMerchantID())
	assert.Equal(t, "live-secret", cfg.ActiveMerchantSecretKey())
	assert.Equal(t, map[string]string{"USD": "100200"}, cfg.ActiveEndpoints())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testing.T)
	}{
		{"bad mode", func(t *testing.T) { t.Setenv("ZOTA_MODE", "staging") }},
		{"missing merchant id", func(t *testing.T) { t.Setenv("ZOTA_TEST_MERCHANT_ID", "") }},
		{"missing secret", func(t *testing.T) { t.Setenv("ZOTA_TEST_MERCHANT_SECRET_KEY", "") }},
		{"short jwt secret", func(t *testing.T) { t.Setenv("JWT_SECRET", "short") }},
		{"bad expiration window", func(t *testing.T) { t.Setenv("EXPIRATION_WINDOW", "soon") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidEnv(t)
			tt.mutate(t)

			_, err := Load()
			require.Error(t, err)
		})
	}
}
