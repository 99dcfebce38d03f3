package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tkshop/catalog-service/config"
	"github.com/tkshop/catalog-service/internal/app"
	"github.com/tkshop/catalog-service/internal/handlers"
	"github.com/tkshop/catalog-service/internal/jobs"
	"github.com/tkshop/catalog-service/internal/middleware"
	"github.com/tkshop/catalog-service/internal/pipeline"
	"github.com/tkshop/catalog-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("CATALOG_CONFIG"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.Logging, "catalog-service")
	logger.Info().Msg("Starting catalog service")

	ctx := context.Background()
	telemetryCfg := cfg.Telemetry
	telemetryCfg.Storage = cfg.Database.Driver
	telemetryCfg.LockBackend = "local"
	if cfg.Redis.URL != "" {
		telemetryCfg.LockBackend = "redis"
	}
	shutdownTelemetry, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	if n, err := pipeline.MarkInterrupted(ctx, a.Stores.Runs); err != nil {
		logger.Warn().Err(err).Msg("Failed to handle interrupted runs")
	} else if n > 0 {
		logger.Info().Int("count", n).Msg("Marked interrupted runs")
	}

	scheduler := startScheduler(cfg, a, logger)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	h := handlers.New(a.Runner, a.Stores.Catalog, handlers.Config{
		Defaults:     cfg.Import.Options,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Ping:         a.Stores.Ping,
	})

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.Server.InternalAPIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		BurstSize:         cfg.Server.Burst,
	}))
	h.Register(internal)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

func startScheduler(cfg *config.Config, a *app.App, logger zerolog.Logger) *jobs.Scheduler {
	scheduler := jobs.NewScheduler(a.Runner, a.Archive)
	for _, job := range cfg.Schedule.Imports {
		if job.Options == nil {
			defaults := cfg.Import.Options
			job.Options = &defaults
		}
		if err := scheduler.AddImport(job); err != nil {
			logger.Fatal().Err(err).Msg("Invalid scheduled import")
		}
	}
	if a.Archive != nil && cfg.Schedule.CleanupCron != "" {
		if err := scheduler.AddArchiveCleanup(cfg.Schedule.CleanupCron, cfg.Schedule.ArchiveCleanup); err != nil {
			logger.Fatal().Err(err).Msg("Invalid archive cleanup schedule")
		}
	}
	scheduler.Start()
	logger.Info().Int("jobs", scheduler.Entries()).Msg("Scheduler started")
	return scheduler
}
