package merchant

import (
	"context"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/zotapay/deposit-gateway/internal/domain"
)

const (
	ModeLive = "live"
	ModeTest = "test"

	liveAPIBase = "https://api.zotapay.com"
	testAPIBase = "https://api.zotapay-sandbox.com"

	testPrefixSettingKey = "test_prefix"
)

// Credentials holds the raw per-mode merchant settings as configured.
type Credentials struct {
	Mode string

	MerchantID string
	SecretKey  string
	// Endpoints maps upper-case currency codes to the processor endpoint id
	// for the active mode.
	Endpoints map[string]string

	// StoreURL identifies the store; it seeds the generated test prefix.
	StoreURL string
}

// Config is the resolved merchant configuration used to build and sign
// deposit requests.
type Config struct {
	Mode       string
	MerchantID string
	SecretKey  string
	APIBase    string
	TestPrefix string
	endpoints  map[string]string
}

// TestMode reports whether sandbox credentials are active.
func (c *Config) TestMode() bool {
	return c.Mode == ModeTest
}

// EndpointForCurrency returns the currency-specific endpoint id.
func (c *Config) EndpointForCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	endpoint, ok := c.endpoints[currency]
	if !ok || endpoint == "" {
		return "", &domain.ConfigurationError{
			Field:  "endpoint_" + strings.ToLower(currency),
			Reason: "no endpoint configured for currency",
		}
	}
	return endpoint, nil
}

// MerchantOrderID derives the processor-facing order identifier. Test-mode
// submissions carry the generated prefix so sandbox and live identifiers
// never collide.
func (c *Config) MerchantOrderID(orderID int64) string {
	return c.TestPrefix + strconv.FormatInt(orderID, 10)
}

// SettingsStore persists generated gateway settings across restarts.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSettingIfAbsent(ctx context.Context, key, value string) error
}

// Provider resolves merchant configuration for the active mode and owns the
// lazily generated test prefix.
type Provider struct {
	creds    Credentials
	settings SettingsStore
}

func NewProvider(creds Credentials, settings SettingsStore) *Provider {
	return &Provider{creds: creds, settings: settings}
}

// Resolve validates the active-mode credentials and returns the merchant
// configuration. In test mode the persisted test prefix is loaded, generating
// and persisting it on first use. Generation is idempotent: concurrent first
// calls all end up reading the same stored value.
func (p *Provider) Resolve(ctx context.Context) (*Config, error) {
	mode := p.creds.Mode
	if mode != ModeLive && mode != ModeTest {
		return nil, &domain.ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}
	if strings.TrimSpace(p.creds.MerchantID) == "" {
		return nil, &domain.ConfigurationError{Field: "merchant_id", Reason: "required for mode " + mode}
	}
	if strings.TrimSpace(p.creds.SecretKey) == "" {
		return nil, &domain.ConfigurationError{Field: "merchant_secret_key", Reason: "required for mode " + mode}
	}
	if len(p.creds.Endpoints) == 0 {
		return nil, &domain.ConfigurationError{Field: "endpoints", Reason: "no currency endpoints configured"}
	}

	cfg := &Config{
		Mode:       mode,
		MerchantID: p.creds.MerchantID,
		SecretKey:  p.creds.SecretKey,
		APIBase:    liveAPIBase,
		endpoints:  p.creds.Endpoints,
	}
	if mode == ModeTest {
		cfg.APIBase = testAPIBase
		prefix, err := p.testPrefix(ctx)
		if err != nil {
			return nil, err
		}
		cfg.TestPrefix = prefix
	}
	return cfg, nil
}

// testPrefix returns the persisted test prefix, generating it once when
// absent.
func (p *Provider) testPrefix(ctx context.Context) (string, error) {
	prefix, err := p.settings.GetSetting(ctx, testPrefixSettingKey)
	if err != nil {
		return "", fmt.Errorf("load test prefix: %w", err)
	}
	if prefix != "" {
		return prefix, nil
	}

	generated := GenerateTestPrefix(p.creds.StoreURL)
	if err := p.settings.PutSettingIfAbsent(ctx, testPrefixSettingKey, generated); err != nil {
		return "", fmt.Errorf("persist test prefix: %w", err)
	}

	// Re-read so a concurrent generator's value wins consistently.
	prefix, err = p.settings.GetSetting(ctx, testPrefixSettingKey)
	if err != nil {
		return "", fmt.Errorf("reload test prefix: %w", err)
	}
	if prefix == "" {
		prefix = generated
	}
	return prefix, nil
}

// GenerateTestPrefix derives the deterministic sandbox order-id prefix from a
// store-identifying string.
func GenerateTestPrefix(storeURL string) string {
	sum := crc32.ChecksumIEEE([]byte(storeURL))
	return fmt.Sprintf("%08x-test-", sum)
}
