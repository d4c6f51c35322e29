package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/banking/risk-engine/internal/alerting"
	"github.com/banking/risk-engine/internal/analysis"
	"github.com/banking/risk-engine/internal/api"
	"github.com/banking/risk-engine/internal/cache"
	"github.com/banking/risk-engine/internal/config"
	"github.com/banking/risk-engine/internal/pkg/logger"
	"github.com/banking/risk-engine/internal/pkg/metrics"
	"github.com/banking/risk-engine/internal/pkg/telemetry"
	"github.com/banking/risk-engine/internal/storage"
	"github.com/banking/risk-engine/internal/storage/postgres"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	log, err := logger.New(cfg.Telemetry.ServiceName, cfg.Telemetry.Environment, cfg.Telemetry.Environment != "production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// 3. Initialize Tracing
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal("failed to initialize telemetry", logger.ErrorField(err))
	}
	defer shutdownTracing(context.Background())

	// 4. Connect Data Source
	pg, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer pg.Close()

	var source storage.Source = storage.NewBreakerSource(pg, log)

	// 5. Response Cache (optional)
	var cacheClient *cache.Client
	if cfg.Redis.Enabled {
		cacheClient, err = cache.NewClient(cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", logger.ErrorField(err))
			cacheClient = nil
		}
	}
	defer cacheClient.Close()

	// 6. Alert Publisher (optional)
	var publisher alerting.Publisher = alerting.NopPublisher{}
	if cfg.Kafka.Enabled {
		kp, err := alerting.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			log.Warn("kafka unavailable, alerting disabled", logger.ErrorField(err))
		} else {
			publisher = kp
		}
	}
	defer publisher.Close()

	// 7. Metrics
	collector := metrics.NewCollector(log)
	metricsServer := collector.StartServer(fmt.Sprintf(":%d", cfg.Server.MetricsPort))

	// 8. Analysis Engine
	engine := analysis.NewEngine(source, &cfg.Analysis, log)

	// 9. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// 10. Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%d", cfg.Server.MaxRequestSize)))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Security.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))
	if cfg.Security.RateLimitPerMinute > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(float64(cfg.Security.RateLimitPerMinute) / 60.0),
		)))
	}

	// 11. Routes
	handler := api.NewHandler(engine, source, cacheClient, publisher, collector, cfg, log)
	handler.RegisterRoutes(e)

	// 12. Start Server (Graceful Shutdown)
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)

	go func() {
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("shutting down the server", logger.ErrorField(err))
		}
	}()

	log.Info("risk engine started",
		logger.StringField("addr", serverAddr),
		logger.IntField("metrics_port", cfg.Server.MetricsPort),
		logger.BoolField("cache", cacheClient != nil),
		logger.BoolField("kafka", cfg.Kafka.Enabled),
	)

	// Wait for interrupt signal to gracefully shutdown the server with a timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", logger.ErrorField(err))
	}
	if err := collector.Shutdown(shutdownCtx, metricsServer); err != nil {
		log.Error("metrics server shutdown failed", logger.ErrorField(err))
	}

	log.Info("server exited properly")
}
