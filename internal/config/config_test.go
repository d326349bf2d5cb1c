package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/online-payments/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"ADYEN_API_KEY":          "test_api_key",
		"ADYEN_MERCHANT_ACCOUNT": "TestMerchant",
		"ADYEN_CLIENT_KEY":       "test_client_key",
		"ADYEN_HMAC_KEY":         "44782DEF547AAA06C910C43932B1EB0C71FC68D9D0C057550C48EC2ACF6BA056",
		"ADYEN_ENVIRONMENT":      "",
		"ADYEN_LIVE_URL_PREFIX":  "",
		"ADYEN_CHECKOUT_URL":     "",
		"PUBLIC_BASE_URL":        "",
		"TAX_RATE_BPS":           "",
		"ADYEN_TIMEOUT":          "",
		"RATE_LIMIT_ENABLED":     "",
		"OBS_LOG_FORMAT":         "",
		"CORS_ALLOWED_ORIGINS":   "",
		"PAYMENT_DATA_TTL":       "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, config.EnvironmentTest, cfg.AdyenEnvironment)
	require.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	require.Equal(t, int64(2100), cfg.TaxRateBPS)
	require.Equal(t, time.Hour, cfg.PaymentDataTTL)
	require.Equal(t, "https://checkout-test.adyen.com/v71", cfg.CheckoutBaseURL())
	require.True(t, cfg.SecurityHeadersEnabled)
}

func TestLoadRequiresHMACKey(t *testing.T) {
	env := baseEnv()
	env["ADYEN_HMAC_KEY"] = ""
	_, err := config.LoadForTests(env)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ADYEN_HMAC_KEY")
}

func TestLoadRejectsNonHexHMACKey(t *testing.T) {
	env := baseEnv()
	env["ADYEN_HMAC_KEY"] = "not-a-hex-key"
	_, err := config.LoadForTests(env)
	require.Error(t, err)
}

func TestLoadRequiresCredentials(t *testing.T) {
	for _, key := range []string{"ADYEN_API_KEY", "ADYEN_MERCHANT_ACCOUNT", "ADYEN_CLIENT_KEY"} {
		env := baseEnv()
		env[key] = ""
		_, err := config.LoadForTests(env)
		require.Error(t, err, key)
		require.Contains(t, err.Error(), key)
	}
}

func TestLiveEnvironmentNeedsPrefix(t *testing.T) {
	env := baseEnv()
	env["ADYEN_ENVIRONMENT"] = "live"
	_, err := config.LoadForTests(env)
	require.Error(t, err)

	env["ADYEN_LIVE_URL_PREFIX"] = "1797a841fbb37ca7-AdyenDemo"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "https://1797a841fbb37ca7-AdyenDemo-checkout-live.adyenpayments.com/checkout/v71", cfg.CheckoutBaseURL())
}

func TestHTTPAddr(t *testing.T) {
	cfg := &config.Config{Port: "9090"}
	require.Equal(t, ":9090", cfg.HTTPAddr())
	cfg.Port = ":7000"
	require.Equal(t, ":7000", cfg.HTTPAddr())
}

func TestLoadOverridesAndObsDefaults(t *testing.T) {
	env := baseEnv()
	env["ADYEN_TIMEOUT"] = "5s"
	env["RATE_LIMIT_ENABLED"] = "true"
	env["OBS_LOG_FORMAT"] = "console"
	env["CORS_ALLOWED_ORIGINS"] = "https://shop.example, ,https://admin.example"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)

	require.Equal(t, 5*time.Second, cfg.AdyenTimeout)
	require.True(t, cfg.RateLimitEnabled)
	require.Equal(t, "console", cfg.LogFormat)
	require.Equal(t, "info", cfg.LogLevel)
	require.True(t, cfg.MetricsEnabled)
	require.Equal(t, "payments", cfg.MetricsNamespace)
	require.Equal(t, 300*time.Millisecond, cfg.HealthReadyTimeout)
	require.Equal(t, int64(64<<10), cfg.APIMaxBodyBytes)
	require.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.CORSAllowedOrigins())
}

func TestCORSFallsBackToPublicBaseURL(t *testing.T) {
	cfg := &config.Config{PublicBaseURL: "https://pay.example"}
	require.Equal(t, []string{"https://pay.example"}, cfg.CORSAllowedOrigins())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	env := baseEnv()
	env["PAYMENT_DATA_TTL"] = "soon"
	_, err := config.LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["ADYEN_ENVIRONMENT"] = "staging"
	_, err = config.LoadForTests(env)
	require.ErrorContains(t, err, "ADYEN_ENVIRONMENT")
}

func TestLoadWorkerNeedsRedis(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	_, err := config.LoadWorker()
	require.ErrorContains(t, err, "REDIS_URL")

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := config.LoadWorker()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.WorkerConcurrency)
}
