package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	httpAdapter "github.com/lorrc/helpdesk-metrics-backend/internal/adapters/primary/http"
	mw "github.com/lorrc/helpdesk-metrics-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-metrics-backend/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk-metrics-backend/internal/adapters/secondary/cache"
	"github.com/lorrc/helpdesk-metrics-backend/internal/adapters/secondary/freshdesk"
	"github.com/lorrc/helpdesk-metrics-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/helpdesk-metrics-backend/internal/config"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/services"
	"github.com/lorrc/helpdesk-metrics-backend/internal/infrastructure/logging"
	"github.com/lorrc/helpdesk-metrics-backend/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Metrics Registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	acqMetrics := metrics.NewAcquisition(registry)

	// 4. Initialize the Thread Cache Backend
	ctx := context.Background()
	threadCache, cleanup, err := buildThreadCache(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize thread cache", "error", err)
		os.Exit(1)
	}
	defer cleanup()
	logger.Info("thread cache ready", "backend", cfg.Cache.Backend)

	// 5. Initialize the Outbound Acquisition Pipeline
	scheduler := freshdesk.NewScheduler(freshdesk.SchedulerConfig{
		MaxInFlight:  cfg.Helpdesk.MaxInFlight,
		MaxPerWindow: cfg.Helpdesk.MaxPerWindow,
		Window:       cfg.Helpdesk.Window,
	}, logger, acqMetrics)

	client := freshdesk.NewClient(freshdesk.Config{
		BaseURL:        cfg.Helpdesk.BaseURL,
		APIKey:         cfg.Helpdesk.APIKey,
		MaxRetries:     cfg.Helpdesk.MaxRetries,
		RetryBaseDelay: cfg.Helpdesk.RetryBaseDelay,
		RequestTimeout: cfg.Helpdesk.RequestTimeout,
	}, scheduler, logger, acqMetrics)

	gateway := freshdesk.NewGateway(client, logger)
	augmentor := freshdesk.NewAugmentor(gateway, threadCache, logger, acqMetrics)

	// 6. Initialize Real-time Progress Hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 7. Services (Core)
	engine := services.NewActivityEngine(
		services.DefaultEffortWeights(),
		cfg.Report.UTCOffsetMinutes,
		logger,
	)
	reportService := services.NewReportService(
		gateway,
		augmentor,
		engine,
		hub,
		cfg.Report.RetainedRuns,
		logger,
		acqMetrics,
	)

	reportScheduler := services.NewReportScheduler(reportService, cfg.Report.UTCOffsetMinutes, logger)
	if err := reportScheduler.Start(cfg.Report.CronSchedule); err != nil {
		logger.Error("failed to start report scheduler", "error", err)
		os.Exit(1)
	}
	defer reportScheduler.Stop()

	// 8. Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(logger)
	reportHandler := httpAdapter.NewReportHandler(reportService, gateway, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, httpAdapter.WebSocketConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.IsDevelopment(),
	}, logger)
	healthHandler := httpAdapter.NewHealthHandler(threadCache, cfg.App.Version)

	// 9. Setup Router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.RateLimit.Enabled {
		limiter := mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		r.Use(limiter.Middleware)
	}

	// Health and metrics endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		reportHandler.RegisterRoutes(r)
		r.Get("/ws/progress", wsHandler.HandleProgress)
	})

	// 10. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// buildThreadCache constructs the configured cache backend and returns it
// with a cleanup function for any owned connections.
func buildThreadCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ThreadCache, func(), error) {
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryThreadCache(), func() {}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return cache.NewRedisThreadCache(client, cfg.Cache.TTL), func() { _ = client.Close() }, nil

	case "postgres":
		mig, err := migrate.New("file://"+cfg.Cache.MigrationsPath, cfg.Cache.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, nil, err
		}
		logger.Info("cache migrations applied")

		pool, err := pgxpool.New(ctx, cfg.Cache.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewThreadCacheRepository(pool), pool.Close, nil
	}

	// Config validation rejects unknown backends before this point.
	return cache.NewMemoryThreadCache(), func() {}, nil
}
