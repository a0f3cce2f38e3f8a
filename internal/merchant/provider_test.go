package merchant

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/testutil/memstore"
)

func testCredentials() Credentials {
	return Credentials{
		Mode:       ModeTest,
		MerchantID: "MERCHANT-1",
		SecretKey:  "secret",
		Endpoints:  map[string]string{"USD": "503364"},
		StoreURL:   "https://shop.example.com",
	}
}

func TestResolveTestMode(t *testing.T) {
	provider := NewProvider(testCredentials(), memstore.New())

	cfg, err := provider.Resolve(context.Background())
	require.NoError(t, err)

	assert.True(t, cfg.TestMode())
	assert.Equal(t, "https://api.zotapay-sandbox.com", cfg.APIBase)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-test-$`), cfg.TestPrefix)
}

func TestResolveLiveMode(t *testing.T) {
	creds := testCredentials()
	creds.Mode = ModeLive
	provider := NewProvider(creds, memstore.New())

	cfg, err := provider.Resolve(context.Background())
	require.NoError(t, err)

	assert.False(t, cfg.TestMode())
	assert.Equal(t, "https://api.zotapay.com", cfg.APIBase)
	assert.Empty(t, cfg.TestPrefix)
	assert.Equal(t, "1001", cfg.MerchantOrderID(1001))
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Credentials)
		field  string
	}{
		{"unknown mode", func(c *Credentials) { c.Mode = "staging" }, "mode"},
		{"missing merchant id", func(c *Credentials) { c.MerchantID = " " }, "merchant_id"},
		{"missing secret", func(c *Credentials) { c.SecretKey = "" }, "merchant_secret_key"},
		{"no endpoints", func(c *Credentials) { c.Endpoints = nil }, "endpoints"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := testCredentials()
			tt.mutate(&creds)

			_, err := NewProvider(creds, memstore.New()).Resolve(context.Background())
			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestTestPrefixPersistsAcrossResolves(t *testing.T) {
	store := memstore.New()
	provider := NewProvider(testCredentials(), store)
	ctx := context.Background()

	first, err := provider.Resolve(ctx)
	require.NoError(t, err)
	second, err := provider.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TestPrefix, second.TestPrefix)

	// A fresh provider against the same settings store reuses the stored
	// prefix even if its store URL changed.
	creds := testCredentials()
	creds.StoreURL = "https://renamed.example.com"
	moved, err := NewProvider(creds, store).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TestPrefix, moved.TestPrefix)
}

func TestGenerateTestPrefixDeterministic(t *testing.T) {
	a := GenerateTestPrefix("https://shop.example.com")
	b := GenerateTestPrefix("https://shop.example.com")
	other := GenerateTestPrefix("https://other.example.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-test-$`), a)
}

func TestMerchantOrderIDCarriesTestPrefix(t *testing.T) {
	provider := NewProvider(testCredentials(), memstore.New())

	cfg, err := provider.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.TestPrefix+"1001", cfg.MerchantOrderID(1001))
}

func TestEndpointForCurrency(t *testing.T) {
	provider := NewProvider(testCredentials(), memstore.New())
	cfg, err := provider.Resolve(context.Background())
	require.NoError(t, err)

	endpoint, err := cfg.EndpointForCurrency("usd")
	require.NoError(t, err)
	assert.Equal(t, "503364", endpoint)

	_, err = cfg.EndpointForCurrency("EUR")
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "endpoint_eur", cfgErr.Field)
}
