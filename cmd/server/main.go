package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	feedapp "github.com/feedbridge/backend/internal/application/feed"
	mappingapp "github.com/feedbridge/backend/internal/application/mapping"
	sourceapp "github.com/feedbridge/backend/internal/application/source"
	syncapp "github.com/feedbridge/backend/internal/application/sync"
	"github.com/feedbridge/backend/internal/domain/feed"
	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/feedbridge/backend/internal/infrastructure/cache"
	"github.com/feedbridge/backend/internal/infrastructure/config"
	"github.com/feedbridge/backend/internal/infrastructure/event"
	"github.com/feedbridge/backend/internal/infrastructure/logger"
	"github.com/feedbridge/backend/internal/infrastructure/persistence"
	"github.com/feedbridge/backend/internal/infrastructure/platform"
	"github.com/feedbridge/backend/internal/infrastructure/queue"
	"github.com/feedbridge/backend/internal/infrastructure/scheduler"
	"github.com/feedbridge/backend/internal/infrastructure/storage"
	"github.com/feedbridge/backend/internal/interfaces/http/handler"
	"github.com/feedbridge/backend/internal/interfaces/http/middleware"
	"github.com/feedbridge/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting FeedBridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.NewGormLogger(log, gormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	tenantRepo := persistence.NewGormTenantConfigRepository(db.DB)
	recordRepo := persistence.NewGormSourceRecordRepository(db.DB)
	overrideRepo := persistence.NewGormFieldOverrideRepository(db.DB)
	resolvedRepo := persistence.NewGormResolvedRecordRepository(db.DB)
	batchRepo := persistence.NewGormSyncBatchRepository(db.DB)

	// Fingerprint cache and webhook delivery guard, redis with an
	// in-memory fallback for local runs
	store, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing cache store", zap.Error(err))
		}
	}()

	// Feed publication target
	feedStore, err := storage.NewS3FeedStore(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create feed store", zap.Error(err))
	}
	bucketCtx, cancelBucket := context.WithTimeout(context.Background(), 30*time.Second)
	if err := feedStore.EnsureBucket(bucketCtx); err != nil {
		log.Warn("Feed bucket unavailable, publication will fail until it recovers", zap.Error(err))
	}
	cancelBucket()

	// Domain services
	resolver := mapping.NewResolver(log)
	validator := mapping.NewValidator(mapping.Limits{
		TitleMax:       cfg.Feed.TitleMaxLength,
		DescriptionMax: cfg.Feed.DescriptionMaxLength,
	})
	assembler := feed.NewAssembler(log)

	// Event bus
	bus := event.NewInMemoryEventBus(log)
	busCtx, cancelBus := context.WithCancel(context.Background())
	defer cancelBus()
	if err := bus.Start(busCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Source platform client
	var fetcher sourceapp.CatalogFetcher
	if client, err := platform.NewClient(&cfg.Source, log); err != nil {
		log.Warn("Source platform not configured, catalog pulls disabled", zap.Error(err))
		fetcher = unconfiguredFetcher{}
	} else {
		fetcher = client
	}

	// Application services
	feedService := feedapp.NewService(tenantRepo, resolvedRepo, assembler, feedStore, log)
	overrideService := mappingapp.NewOverrideService(recordRepo, overrideRepo, tenantRepo, resolver, validator, log)
	ingestService := sourceapp.NewIngestService(fetcher, recordRepo, tenantRepo, log)

	// Sync executor and worker pool
	executor := syncapp.NewExecutor(
		syncapp.ExecutorConfig{
			HeartbeatPeriod:  cfg.Sync.HeartbeatPeriod,
			HeartbeatTimeout: cfg.Sync.HeartbeatTimeout,
		},
		batchRepo, recordRepo, overrideRepo, resolvedRepo, tenantRepo,
		resolver, validator, store, feedService, bus, log,
	)
	pool, err := queue.NewPool(queue.Config{
		Workers:     cfg.Sync.Workers,
		MaxAttempts: cfg.Sync.RetryAttempts,
		BackoffBase: cfg.Sync.RetryBackoffBase,
	}, queue.NewQueue(), executor, log)
	if err != nil {
		log.Fatal("Failed to create worker pool", zap.Error(err))
	}
	poolCtx, cancelPool := context.WithCancel(context.Background())
	defer cancelPool()
	if err := pool.Start(poolCtx); err != nil {
		log.Fatal("Failed to start worker pool", zap.Error(err))
	}

	syncService := syncapp.NewService(batchRepo, recordRepo, pool, log)

	// Auto-sync scheduler
	autoSync := scheduler.NewAutoSyncScheduler(scheduler.Config{
		Enabled:      cfg.Scheduler.Enabled,
		SyncInterval: cfg.Scheduler.SyncInterval,
	}, tenantRepo, syncService, log)
	if err := autoSync.Start(poolCtx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	router.NewRouter(engine).
		Register(handler.NewSystemHandler()).
		Register(handler.NewSyncHandler(syncService)).
		Register(handler.NewRecordHandler(ingestService)).
		Register(handler.NewOverrideHandler(overrideService)).
		Register(handler.NewFeedHandler(feedService)).
		Register(handler.NewWebhookHandler(cfg.Source.WebhookSecret, ingestService, syncService, store, log)).
		Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	autoSync.Stop()
	if err := pool.Stop(shutdownCtx); err != nil {
		log.Error("Worker pool shutdown failed", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus shutdown failed", zap.Error(err))
	}
	log.Info("Shutdown complete")
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "warn", "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

// unconfiguredFetcher stands in when the source platform credentials are
// absent so manually seeded records still resolve and publish
type unconfiguredFetcher struct{}

func (unconfiguredFetcher) FetchProducts(_ context.Context, _ string) ([]platform.Product, error) {
	return nil, platform.ErrNotConfigured
}

func (unconfiguredFetcher) FetchProduct(_ context.Context, _ string) (*platform.Product, error) {
	return nil, platform.ErrNotConfigured
}
