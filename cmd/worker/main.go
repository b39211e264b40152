package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tokokriya/storefront/internal/config"
	"github.com/tokokriya/storefront/internal/content"
	"github.com/tokokriya/storefront/internal/lock"
	"github.com/tokokriya/storefront/internal/notify"
	"github.com/tokokriya/storefront/internal/obs"
	"github.com/tokokriya/storefront/internal/resilience"
)

// typeContentRefresh periodically re-fetches storefront content sections so
// cached copies never serve beyond their freshness window.
const typeContentRefresh = "content:refresh"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := mustInitRedis(ctx, redisOpts, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	contentSvc := &content.Service{
		Cache: &content.Cache{Client: redisClient, TTL: cfg.ContentCacheTTL, Logger: logger},
		Loader: content.HTTPLoader{
			BaseURL: cfg.ContentBaseURL,
			HTTP: resilience.HTTPClient{
				Client:      &httpClient,
				Breaker:     resilience.NewBreaker(10, 0.5, 30*time.Second),
				BaseBackoff: cfg.UpstreamBaseBackoff,
				MaxAttempts: cfg.UpstreamMaxAttempts,
				Jitter:      0.2,
				Timeout:     cfg.UpstreamTimeout,
				Target:      "content",
				Logger:      &logger,
			},
		},
	}
	locker := lock.Locker{R: redisClient, Prefix: "lock:"}

	asynqOpts := asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB}

	mux := asynq.NewServeMux()
	mux.Handle(notify.TypeDomainEvent, notify.HandleDomainEvent(logger))
	mux.HandleFunc(typeContentRefresh, func(ctx context.Context, task *asynq.Task) error {
		section := string(task.Payload())
		if strings.TrimSpace(section) == "" {
			return nil
		}
		// one refresh per section across all worker instances
		return locker.WithLock(ctx, "content:"+section, 30*time.Second, func(ctx context.Context) error {
			if err := contentSvc.Refresh(ctx, section); err != nil {
				logger.Warn().Err(err).Str("section", section).Msg("content_refresh_failed")
				return err
			}
			logger.Info().Str("section", section).Msg("content_refreshed")
			return nil
		})
	})

	srv := asynq.NewServer(asynqOpts, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 5),
		Queues:      map[string]int{"events": 5, "maintenance": 1},
		Logger:      asynqZerolog{logger},
	})

	scheduler := asynq.NewScheduler(asynqOpts, &asynq.SchedulerOpts{Logger: asynqZerolog{logger}})
	refreshEvery := envOrDefault("CONTENT_REFRESH_CRON", "@every 5m")
	for _, section := range splitCSV(envOrDefault("CONTENT_REFRESH_SECTIONS", "hero,featured,artists")) {
		if _, err := scheduler.Register(refreshEvery,
			asynq.NewTask(typeContentRefresh, []byte(section), asynq.Queue("maintenance"))); err != nil {
			logger.Error().Err(err).Str("section", section).Msg("register refresh schedule")
		}
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	logger.Info().Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}

	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker stopped")
}

var httpClient = http.Client{
	Timeout:   10 * time.Second,
	Transport: otelhttp.NewTransport(http.DefaultTransport),
}

func mustInitRedis(ctx context.Context, opts *redis.Options, logger zerolog.Logger) *redis.Client {
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

// asynqZerolog adapts zerolog to the asynq logging interface.
type asynqZerolog struct {
	l zerolog.Logger
}

func (a asynqZerolog) Debug(args ...any) { a.l.Debug().Msg(sprint(args...)) }
func (a asynqZerolog) Info(args ...any)  { a.l.Info().Msg(sprint(args...)) }
func (a asynqZerolog) Warn(args ...any)  { a.l.Warn().Msg(sprint(args...)) }
func (a asynqZerolog) Error(args ...any) { a.l.Error().Msg(sprint(args...)) }
func (a asynqZerolog) Fatal(args ...any) { a.l.Fatal().Msg(sprint(args...)) }

func sprint(args ...any) string {
	return strings.TrimSpace(fmt.Sprintln(args...))
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
