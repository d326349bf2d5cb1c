package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvironmentTest targets the Adyen test platform.
	EnvironmentTest = "TEST"
	// EnvironmentLive targets the Adyen live platform.
	EnvironmentLive = "LIVE"
)

// Config holds application configuration loaded from the environment. Field
// tags name the environment variable each value is read from.
type Config struct {
	AppEnv         string `koanf:"APP_ENV"`
	Port           string `koanf:"PORT"`
	PublicBaseURL  string `koanf:"PUBLIC_BASE_URL"`
	CORSOriginsCSV string `koanf:"CORS_ALLOWED_ORIGINS"`

	AdyenAPIKey          string        `koanf:"ADYEN_API_KEY"`
	AdyenMerchantAccount string        `koanf:"ADYEN_MERCHANT_ACCOUNT"`
	AdyenClientKey       string        `koanf:"ADYEN_CLIENT_KEY"`
	AdyenHMACKey         string        `koanf:"ADYEN_HMAC_KEY"`
	AdyenEnvironment     string        `koanf:"ADYEN_ENVIRONMENT"`
	AdyenLiveURLPrefix   string        `koanf:"ADYEN_LIVE_URL_PREFIX"`
	AdyenCheckoutURL     string        `koanf:"ADYEN_CHECKOUT_URL"`
	AdyenTimeout         time.Duration `koanf:"ADYEN_TIMEOUT"`

	TaxRateBPS     int64         `koanf:"TAX_RATE_BPS"`
	RedisURL       string        `koanf:"REDIS_URL"`
	PaymentDataTTL time.Duration `koanf:"PAYMENT_DATA_TTL"`
	IdempotencyTTL time.Duration `koanf:"IDEMPOTENCY_TTL"`

	APIMaxBodyBytes     int64 `koanf:"API_MAX_BODY_BYTES"`
	WebhookMaxBodyBytes int64 `koanf:"WEBHOOK_MAX_BODY_BYTES"`
	WorkerConcurrency   int   `koanf:"WORKER_CONCURRENCY"`

	RateLimitEnabled bool          `koanf:"RATE_LIMIT_ENABLED"`
	RateLimitWindow  time.Duration `koanf:"RATE_LIMIT_WINDOW"`
	RateLimitMax     int           `koanf:"RATE_LIMIT_MAX"`

	CircuitMinRequests  int           `koanf:"CIRCUIT_MIN_REQUESTS"`
	CircuitFailureRatio float64       `koanf:"CIRCUIT_FAILURE_RATIO"`
	CircuitOpenFor      time.Duration `koanf:"CIRCUIT_OPEN_FOR"`

	SecurityHeadersEnabled bool `koanf:"SECURITY_HEADERS_ENABLED"`
	HSTSMaxAge             int  `koanf:"SECURE_HSTS_MAX_AGE"`

	HealthReadyTimeout time.Duration `koanf:"HEALTH_READY_TIMEOUT"`
	ShutdownTimeout    time.Duration `koanf:"SHUTDOWN_TIMEOUT"`

	Obs `koanf:",squash"`
}

// Obs configures logging, metrics, tracing and profiling.
type Obs struct {
	LogFormat        string  `koanf:"OBS_LOG_FORMAT"`
	LogLevel         string  `koanf:"OBS_LOG_LEVEL"`
	MetricsEnabled   bool    `koanf:"OBS_ENABLE_PROMETHEUS"`
	MetricsNamespace string  `koanf:"OBS_METRICS_NAMESPACE"`
	MetricsBuckets   string  `koanf:"OBS_METRICS_BUCKETS_MS"`
	TracingEnabled   bool    `koanf:"OBS_ENABLE_TRACING"`
	TracingExporter  string  `koanf:"OBS_TRACING_EXPORTER"`
	OTLPEndpoint     string  `koanf:"OBS_OTLP_ENDPOINT"`
	SamplingRatio    float64 `koanf:"OBS_TRACING_SAMPLING_RATIO"`
	PprofEnabled     bool    `koanf:"OBS_ENABLE_PPROF"`
	PprofUser        string  `koanf:"SECURE_PPROF_BASIC_AUTH_USER"`
	PprofPass        string  `koanf:"SECURE_PPROF_BASIC_AUTH_PASS"`
}

var defaults = map[string]any{
	"APP_ENV":                  "development",
	"PORT":                     "8080",
	"PUBLIC_BASE_URL":          "http://localhost:8080",
	"ADYEN_ENVIRONMENT":        EnvironmentTest,
	"ADYEN_TIMEOUT":            "30s",
	"TAX_RATE_BPS":             2100,
	"PAYMENT_DATA_TTL":         "1h",
	"IDEMPOTENCY_TTL":          "24h",
	"API_MAX_BODY_BYTES":       64 << 10,
	"WEBHOOK_MAX_BODY_BYTES":   1 << 20,
	"WORKER_CONCURRENCY":       5,
	"RATE_LIMIT_ENABLED":       false,
	"RATE_LIMIT_WINDOW":        "1m",
	"RATE_LIMIT_MAX":           60,
	"CIRCUIT_MIN_REQUESTS":     10,
	"CIRCUIT_FAILURE_RATIO":    0.5,
	"CIRCUIT_OPEN_FOR":         "30s",
	"SECURITY_HEADERS_ENABLED": true,
	"SECURE_HSTS_MAX_AGE":      31536000,
	"HEALTH_READY_TIMEOUT":     "300ms",
	"SHUTDOWN_TIMEOUT":         "15s",

	"OBS_LOG_FORMAT":             "json",
	"OBS_LOG_LEVEL":              "info",
	"OBS_ENABLE_PROMETHEUS":      true,
	"OBS_METRICS_NAMESPACE":      "payments",
	"OBS_ENABLE_TRACING":         false,
	"OBS_TRACING_EXPORTER":       "otlp",
	"OBS_TRACING_SAMPLING_RATIO": 1.0,
}

// Load reads configuration for the API process. Provider credentials and the
// webhook HMAC key are mandatory: the server must not start without them.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	for _, req := range []struct{ key, val string }{
		{"ADYEN_API_KEY", cfg.AdyenAPIKey},
		{"ADYEN_MERCHANT_ACCOUNT", cfg.AdyenMerchantAccount},
		{"ADYEN_CLIENT_KEY", cfg.AdyenClientKey},
	} {
		if req.val == "" {
			return nil, fmt.Errorf("%s is required", req.key)
		}
	}
	if cfg.AdyenHMACKey == "" {
		return nil, errors.New("ADYEN_HMAC_KEY is required: webhooks cannot be authenticated")
	}
	if _, err := hex.DecodeString(cfg.AdyenHMACKey); err != nil {
		return nil, fmt.Errorf("ADYEN_HMAC_KEY must be hex encoded: %w", err)
	}
	if cfg.AdyenEnvironment == EnvironmentLive && cfg.AdyenLiveURLPrefix == "" && cfg.AdyenCheckoutURL == "" {
		return nil, errors.New("ADYEN_LIVE_URL_PREFIX is required for the LIVE environment")
	}
	return cfg, nil
}

// LoadWorker reads configuration for the notification worker, which only
// needs a Redis connection.
func LoadWorker() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	return cfg, nil
}

func load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("default %s: %w", key, err)
		}
	}
	// Blank variables keep their defaults.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		value = strings.TrimSpace(value)
		if value == "" {
			return "", nil
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	cfg.AdyenCheckoutURL = strings.TrimRight(cfg.AdyenCheckoutURL, "/")
	cfg.AdyenEnvironment = strings.ToUpper(cfg.AdyenEnvironment)

	switch cfg.AdyenEnvironment {
	case EnvironmentTest, EnvironmentLive:
	default:
		return nil, fmt.Errorf("ADYEN_ENVIRONMENT must be %s or %s", EnvironmentTest, EnvironmentLive)
	}
	if cfg.TaxRateBPS < 0 {
		return nil, errors.New("TAX_RATE_BPS must not be negative")
	}
	return &cfg, nil
}

// CORSAllowedOrigins lists the configured origins, falling back to the
// public base URL so the hosted pages can always call the API.
func (c *Config) CORSAllowedOrigins() []string {
	var out []string
	for _, part := range strings.Split(c.CORSOriginsCSV, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 && c.PublicBaseURL != "" {
		out = []string{c.PublicBaseURL}
	}
	return out
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

// CheckoutBaseURL resolves the versioned Checkout API endpoint for the configured environment.
func (c *Config) CheckoutBaseURL() string {
	if c.AdyenCheckoutURL != "" {
		return c.AdyenCheckoutURL
	}
	if c.AdyenEnvironment == EnvironmentLive {
		return fmt.Sprintf("https://%s-checkout-live.adyenpayments.com/checkout/v71", c.AdyenLiveURLPrefix)
	}
	return "https://checkout-test.adyen.com/v71"
}

// LoadForTests runs Load with the given variables applied to the process
// environment, restoring the previous values afterwards. Empty values unset
// the variable.
func LoadForTests(vars map[string]string) (*Config, error) {
	previous := make(map[string]*string, len(vars))
	for key, val := range vars {
		if old, ok := os.LookupEnv(key); ok {
			previous[key] = &old
		} else {
			previous[key] = nil
		}
		if err := setEnv(key, val); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()

	var restoreErrs []error
	for key, old := range previous {
		val := ""
		if old != nil {
			val = *old
		}
		if rerr := setEnv(key, val); rerr != nil {
			restoreErrs = append(restoreErrs, rerr)
		}
	}
	if err != nil {
		return nil, err
	}
	return cfg, errors.Join(restoreErrs...)
}

func setEnv(key, val string) error {
	if val == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, val)
}
