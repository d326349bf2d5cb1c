package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/online-payments/internal/app"
	"github.com/noah-isme/online-payments/internal/checkout"
	"github.com/noah-isme/online-payments/internal/config"
	"github.com/noah-isme/online-payments/internal/health"
	"github.com/noah-isme/online-payments/internal/obs"
	"github.com/noah-isme/online-payments/internal/ratelimit"
	"github.com/noah-isme/online-payments/internal/security"
	"github.com/noah-isme/online-payments/internal/web"
	"github.com/noah-isme/online-payments/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := obs.NewLogger("json", "info")
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "online-payments",
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	checkoutSvc := &checkout.Service{
		Provider: deps.Provider,
		Store:    deps.Store,
		Builder: checkout.Builder{
			MerchantAccount: cfg.AdyenMerchantAccount,
			PublicBaseURL:   cfg.PublicBaseURL,
			Augmentations:   checkout.DefaultAugmentations(cfg.TaxRateBPS),
		},
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Validate: deps.Validator}
	if deps.Idem != nil {
		checkoutHandler.Idem = deps.Idem.Middleware
	}
	webhookHandler := webhook.Handler{Validator: deps.Webhooks, Processor: deps.Processor}
	pages := web.Handler{ClientKey: cfg.AdyenClientKey, Environment: cfg.AdyenEnvironment}

	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.Tracing)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(obs.WithLogger(logger))
	r.Use(security.Headers{
		Enable:                cfg.SecurityHeadersEnabled,
		EnableHSTS:            cfg.AppEnv == "production",
		HSTSMaxAge:            cfg.HSTSMaxAge,
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: security.CheckoutCSP,
	}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.PprofEnabled {
		r.Mount("/debug", profiler(cfg.PprofUser, cfg.PprofPass))
	}

	healthHandler := health.Handler{
		Checks:  deps.ReadinessChecks(),
		Info:    deps.ReadinessInfo(),
		Timeout: cfg.HealthReadyTimeout,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api", func(api chi.Router) {
		api.With(security.BodyLimit{Max: cfg.WebhookMaxBodyBytes}.Middleware).
			Post("/webhooks/notifications", webhookHandler.Notifications)

		api.Group(func(g chi.Router) {
			g.Use(security.BodyLimit{Max: cfg.APIMaxBodyBytes}.Middleware)
			if cfg.RateLimitEnabled {
				g.Use(ratelimit.Handler{
					Limiter: deps.Limiter,
					Config:  ratelimit.Config{Key: ratelimit.ClientKey, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
					OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
				}.Middleware)
			}
			checkoutHandler.Routes(g)
		})
	})

	pages.Routes(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		logger.Info().Msg("draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logServerStart(logger, srv.Addr, cfg)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func logServerStart(logger zerolog.Logger, addr string, cfg *config.Config) {
	logger.Info().
		Str("addr", addr).
		Str("adyen_environment", cfg.AdyenEnvironment).
		Str("checkout_url", cfg.CheckoutBaseURL()).
		Bool("redis", cfg.RedisURL != "").
		Msg("server starting")
}

// profiler exposes net/http/pprof under /debug/pprof, behind basic auth
// when a user is configured.
func profiler(user, pass string) http.Handler {
	h := middleware.Profiler()
	if user == "" {
		return h
	}
	return middleware.BasicAuth("pprof", map[string]string{user: pass})(h)
}
