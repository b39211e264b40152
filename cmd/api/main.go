package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tokokriya/storefront/internal/auth"
	"github.com/tokokriya/storefront/internal/cart"
	"github.com/tokokriya/storefront/internal/catalog"
	"github.com/tokokriya/storefront/internal/checkout"
	"github.com/tokokriya/storefront/internal/common"
	"github.com/tokokriya/storefront/internal/config"
	"github.com/tokokriya/storefront/internal/content"
	"github.com/tokokriya/storefront/internal/events"
	"github.com/tokokriya/storefront/internal/health"
	"github.com/tokokriya/storefront/internal/notify"
	"github.com/tokokriya/storefront/internal/obs"
	"github.com/tokokriya/storefront/internal/order"
	"github.com/tokokriya/storefront/internal/ratelimit"
	"github.com/tokokriya/storefront/internal/resilience"
	"github.com/tokokriya/storefront/internal/security"
	"github.com/tokokriya/storefront/internal/shipping"
	"github.com/tokokriya/storefront/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "storefront")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "storefront-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	upstream := func(target string) resilience.HTTPClient {
		return resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker:     resilience.NewBreaker(10, 0.5, 30*time.Second),
			BaseBackoff: cfg.UpstreamBaseBackoff,
			MaxAttempts: cfg.UpstreamMaxAttempts,
			Jitter:      0.2,
			Timeout:     cfg.UpstreamTimeout,
			Target:      target,
			Logger:      &logger,
		}
	}

	asynqOpts := asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB}
	taskClient := asynq.NewClient(asynqOpts)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	bus := &events.Bus{Notifiers: []events.Notifier{
		notify.LogNotifier{Logger: logger},
		notify.TaskNotifier{Client: taskClient},
	}}

	catalogClient := catalog.HTTPClient{BaseURL: cfg.CatalogBaseURL, HTTP: upstream("catalog")}

	cartSvc := &cart.Service{
		KV:     storage.RedisKV{Client: redisClient},
		TTL:    cfg.CartTTL,
		Events: bus,
		Logger: logger,
	}

	resolver := shipping.Resolver{FreeThreshold: cfg.FreeShippingThreshold, FlatRate: cfg.FlatShippingRate}
	var shippingClient shipping.Client = shipping.MockClient{}
	if cfg.ShippingBaseURL != "" {
		shippingClient = shipping.HTTPClient{BaseURL: cfg.ShippingBaseURL, HTTP: upstream("shipping")}
	}
	quoter := &shipping.Quoter{Client: shippingClient, Resolver: resolver, Logger: logger}

	cartHandler := &cart.Handler{
		Svc:      cartSvc,
		Catalog:  catalogClient,
		Quoter:   quoter,
		Resolver: resolver,
		Currency: cfg.CurrencyCode,
	}

	authService, err := auth.NewService(auth.Config{
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authMiddleware := auth.Middleware{Service: authService}
	authHandler := &auth.Handler{Svc: authService}

	// order submission is a single attempt: a retried POST could place the
	// same order twice
	orderHTTP := upstream("orders")
	orderHTTP.MaxAttempts = 1
	orderClient := order.HTTPClient{BaseURL: cfg.OrderBaseURL, HTTP: orderHTTP}

	checkoutSvc := &checkout.Orchestrator{
		Cart:     cartSvc,
		Orders:   orderClient,
		Quoter:   quoter,
		Resolver: resolver,
		Validate: checkout.NewValidator(),
		Events:   bus,
		Currency: cfg.CurrencyCode,
		Logger:   logger,
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	contentSvc := &content.Service{
		Cache:  &content.Cache{Client: redisClient, TTL: cfg.ContentCacheTTL, Logger: logger},
		Loader: content.HTTPLoader{BaseURL: cfg.ContentBaseURL, HTTP: upstream("content")},
	}
	contentHandler := &content.Handler{Svc: contentSvc}

	idem := common.Idempotency{R: redisClient, TTL: 24 * time.Hour}
	limiter := ratelimit.Guard{
		Limiter: ratelimit.SlidingWindow{R: redisClient},
		KeyFn:   common.ClientIP,
		Window:  time.Minute,
		Max:     cfg.RateLimitPerMinute,
		Logger:  logger,
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PprofUser, cfg.PprofPassword))
	}

	healthHandler := health.Handler{
		Checker: health.Probes{
			Redis: redisClient,
			Upstreams: map[string]string{
				"catalog": cfg.CatalogBaseURL,
				"orders":  cfg.OrderBaseURL,
			},
		},
		RedisTimeout:    envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
		UpstreamTimeout: envDurationMillis("HEALTH_READY_UPSTREAM_TIMEOUT_MS", 500),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limiter.Middleware)

		v.Route("/carts", func(c chi.Router) {
			c.Get("/{id}", cartHandler.Get)
			c.Post("/{id}/quote/shipping", cartHandler.QuoteShipping)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Create)
				g.Post("/{id}/items", cartHandler.AddItem)
				g.Patch("/{id}/items/{productId}", cartHandler.UpdateItem)
				g.Delete("/{id}/items/{productId}", cartHandler.RemoveItem)
				g.Delete("/{id}", cartHandler.Clear)
			})
		})

		v.Route("/checkout", func(c chi.Router) {
			c.Use(authMiddleware.RequireAuth)
			c.Get("/{id}", checkoutHandler.Begin)
			c.Get("/{id}/status", checkoutHandler.Status)
			c.Delete("/{id}", checkoutHandler.Reset)
			c.With(idem.Middleware).Post("/", checkoutHandler.Submit)
		})

		v.Get("/content/{section}", contentHandler.Get)
		v.Group(func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Delete("/content/{section}", contentHandler.Invalidate)
			admin.Delete("/content", contentHandler.InvalidateAll)
		})

		v.With(authMiddleware.RequireAuth).Get("/auth/me", authHandler.Me)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(gotUser), []byte(user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(gotPass), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="pprof"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
