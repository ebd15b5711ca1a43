// Package main provides the entry point for the filterkit campaign listing service
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/filterkit/app/handlers"
	"github.com/amirphl/filterkit/app/router"
	"github.com/amirphl/filterkit/app/scheduler"
	businessflow "github.com/amirphl/filterkit/business_flow"
	"github.com/amirphl/filterkit/choices"
	"github.com/amirphl/filterkit/config"
	"github.com/amirphl/filterkit/filterset"
	"github.com/amirphl/filterkit/logging"
	"github.com/amirphl/filterkit/models"
	"github.com/amirphl/filterkit/repository"
	"github.com/amirphl/filterkit/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	logger    zerolog.Logger
	stopFuncs []func()
}

func main() {
	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	logger = logger.With().
		Str("service", "filterkit").
		Str("version", cfg.Deployment.Version).
		Str("environment", cfg.Deployment.Environment).
		Logger()
	logger.Info().Msg("Starting filterkit application...")

	// Initialize application
	app, err := initializeApplication(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	logger.Info().Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}

	// Stop background workers and release connections once requests have drained
	for _, fn := range app.stopFuncs {
		fn()
	}

	logger.Info().Msg("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, logger zerolog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.SlowQueryLog {
		gormCfg.Logger = gormlogger.New(
			&zerologWriter{logger: logger},
			gormlogger.Config{
				SlowThreshold:             cfg.SlowQueryTime,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("Database connection established")

	return db, nil
}

// zerologWriter adapts the gorm logger's printf output to zerolog
type zerologWriter struct {
	logger zerolog.Logger
}

func (w *zerologWriter) Printf(format string, args ...any) {
	w.logger.Warn().Str("component", "gorm").Msgf(format, args...)
}

// initializeCache initializes the Redis client and verifies connectivity.
// A nil client means the city choices are read from the database.
func initializeCache(cfg config.CacheConfig, logger zerolog.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("addr", opt.Addr).Int("db", cfg.RedisDB).Msg("Redis connection established")
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger zerolog.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					logger.Warn().Err(err).Msg("Redis healthcheck failed")
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig, logger zerolog.Logger) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stopFuncs = append(stopFuncs, closer(sqlDB, "database", logger))

	healthChecks := map[string]router.HealthCheck{
		"database": sqlDB.PingContext,
	}

	var rc redis.Cmdable
	client, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	if client != nil {
		rc = client
		refresher := scheduler.NewChoiceRefresher(
			choices.NewGorm(db, &models.Campaign{}),
			choices.NewRedisSet(client, cfg.Cache.RedisPrefix, nil, cfg.Cache.DefaultTTL).WithLogger(logger),
			businessflow.CachedChoiceFields,
			cfg.Cache.RefreshInterval,
			logger.With().Str("component", "choice_refresher").Logger(),
		)
		stopFuncs = append(stopFuncs,
			refresher.Start(context.Background()),
			startCacheHealthMonitor(context.Background(), client, 30*time.Second, logger),
			closer(client, "redis", logger),
		)
		healthChecks["cache"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, cfg.Database.Name),
	)

	// Filter declarations
	sources := businessflow.NewCampaignChoiceSources(db, rc, cfg.Cache, logger.With().Str("component", "choices").Logger())
	campaignFilters, err := businessflow.NewCampaignFilterSet(sources, utils.UTCNow)
	if err != nil {
		return nil, fmt.Errorf("failed to declare campaign filters: %w", err)
	}
	campaignFilters = campaignFilters.
		WithLogger(logger.With().Str("component", "filterset").Logger()).
		WithMetrics(filterset.NewMetrics(registry))

	// Initialize repositories
	campaignRepo := repository.NewCampaignRepository(db)

	// Initialize flows
	campaignFlow := businessflow.NewCampaignFilterFlow(
		campaignRepo,
		campaignFilters,
		cfg.Filtering,
		logger.With().Str("component", "campaign_flow").Logger(),
	)

	// Initialize handlers
	campaignHandler := handlers.NewCampaignHandler(campaignFlow, logger.With().Str("component", "campaign_handler").Logger())

	// Initialize router
	appRouter := router.NewFiberRouter(campaignHandler, router.Options{
		Server:       cfg.Server,
		Metrics:      cfg.Metrics,
		Deployment:   cfg.Deployment,
		Logger:       logger,
		Registry:     registry,
		HealthChecks: healthChecks,
	})

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		logger:    logger,
		stopFuncs: stopFuncs,
	}, nil
}

func closer(c io.Closer, name string, logger zerolog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Str("resource", name).Msg("Failed to close")
		}
	}
}
