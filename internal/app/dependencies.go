package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/online-payments/internal/adyen"
	"github.com/noah-isme/online-payments/internal/checkout"
	"github.com/noah-isme/online-payments/internal/common"
	"github.com/noah-isme/online-payments/internal/config"
	"github.com/noah-isme/online-payments/internal/health"
	"github.com/noah-isme/online-payments/internal/ratelimit"
	"github.com/noah-isme/online-payments/internal/resilience"
	"github.com/noah-isme/online-payments/internal/webhook"
)

// ProviderTarget labels the provider circuit breaker in logs and metrics.
const ProviderTarget = "adyen-checkout"

// Dependencies enumerates the services shared by the API handlers. Redis is
// optional: without it correlation data and rate limits stay in process and
// notifications are handled inline.
type Dependencies struct {
	Redis      *redis.Client
	TaskClient *asynq.Client
	Validator  *validator.Validate
	Breaker    *resilience.Breaker
	Provider   *adyen.Client
	Store      checkout.Store
	Limiter    ratelimit.Allower
	Idem       *common.Idem
	Processor  webhook.Processor
	Webhooks   *webhook.Validator
}

// New builds the dependency graph for the API process.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	hmacValidator, err := webhook.NewValidator(cfg.AdyenHMACKey)
	if err != nil {
		return nil, err
	}
	breaker := resilience.NewBreaker(cfg.CircuitMinRequests, cfg.CircuitFailureRatio, cfg.CircuitOpenFor).
		WithTarget(ProviderTarget).
		WithLogger(logger)

	deps := &Dependencies{
		Validator: validator.New(validator.WithRequiredStructEnabled()),
		Breaker:   breaker,
		Provider: &adyen.Client{
			BaseURL: cfg.CheckoutBaseURL(),
			APIKey:  cfg.AdyenAPIKey,
			HTTP: resilience.HTTPClient{
				Client: &http.Client{
					Transport: otelhttp.NewTransport(http.DefaultTransport),
				},
				Breaker: breaker,
				Timeout: cfg.AdyenTimeout,
			},
			UserAgent: "online-payments",
		},
		Webhooks: hmacValidator,
	}

	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set: payment data, rate limits and notifications stay in process")
		deps.Store = checkout.NewMemoryStore()
		deps.Limiter = ratelimit.NewMemory("ratelimit")
		deps.Processor = webhook.LogProcessor{}
		return deps, nil
	}

	rdb, err := NewRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		return nil, err
	}
	deps.Redis = rdb
	deps.Store = checkout.RedisStore{R: rdb, TTL: cfg.PaymentDataTTL}
	deps.Limiter = ratelimit.SlidingWindow{Client: rdb, Prefix: "ratelimit:"}
	deps.Idem = &common.Idem{R: rdb, TTL: cfg.IdempotencyTTL}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("parse redis url for queue: %w", err)
	}
	deps.TaskClient = asynq.NewClient(redisOpt)
	deps.Processor = webhook.QueueProcessor{Client: deps.TaskClient}
	return deps, nil
}

// NewRedis connects and instruments a Redis client.
func NewRedis(ctx context.Context, url string, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// ReadinessChecks returns the dependency checks that gate readiness.
func (d *Dependencies) ReadinessChecks() map[string]health.Checker {
	checks := map[string]health.Checker{}
	if d.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return d.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// ReadinessInfo returns states shown on the readiness endpoint without
// gating it. An open provider circuit only affects provider-backed routes.
func (d *Dependencies) ReadinessInfo() map[string]health.Reporter {
	return map[string]health.Reporter{
		"provider_circuit": func() string { return d.Breaker.Current().String() },
	}
}

// Close releases network resources.
func (d *Dependencies) Close() error {
	var errs []error
	if d.TaskClient != nil {
		errs = append(errs, d.TaskClient.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	return errors.Join(errs...)
}
