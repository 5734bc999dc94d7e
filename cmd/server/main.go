package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"availability-service/internal/app"
	"availability-service/internal/availability"
	"availability-service/internal/calendar"
	"availability-service/internal/config"
	"availability-service/internal/logging"
	"availability-service/internal/server"
	"availability-service/internal/store"
	"availability-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer db.Close()

	loc, _ := time.LoadLocation(cfg.DefaultTimezone)
	adapters := calendar.Adapters(calendar.Options{
		GoogleEndpoint: cfg.GoogleCalendarEndpoint,
		GraphEndpoint:  cfg.GraphEndpoint,
		Attempts:       cfg.ExternalFetchAttempts,
		Logger:         logger.Named("calendar"),
	})
	resolver := availability.NewResolver(db, adapters,
		availability.WithLogger(logger.Named("availability")),
		availability.WithLocation(loc),
		availability.WithStep(cfg.SlotStepMinutes),
		availability.WithExternalTimeout(cfg.ExternalFetchTimeout),
		availability.WithConcurrency(cfg.EmployeeConcurrency),
	)

	var limiter app.Limiter = app.NewMemoryLimiter(cfg.RateLimitPerMinute)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		limiter = app.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "availability:rl")
	}

	appInstance := &app.App{
		Resolver:        resolver,
		Store:           db,
		Logger:          logger,
		DefaultBuffer:   cfg.DefaultBufferMinutes,
		DefaultTimezone: cfg.DefaultTimezone,
	}
	router := app.NewRouter(appInstance, app.AuthMiddleware(cfg.Tokens(), cfg.JWTSecret), limiter)

	return server.Run(ctx, cfg.Addr(), router, logger)
}
