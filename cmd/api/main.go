package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	httpDelivery "github.com/TjarkGerken/eu-data-tiles/internal/delivery/http"
	"github.com/TjarkGerken/eu-data-tiles/internal/delivery/http/handler"
	"github.com/TjarkGerken/eu-data-tiles/internal/infrastructure/gdal"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/logger"
	"github.com/TjarkGerken/eu-data-tiles/internal/raster"
	"github.com/TjarkGerken/eu-data-tiles/internal/repository/blob"
	"github.com/TjarkGerken/eu-data-tiles/internal/repository/cache"
	"github.com/TjarkGerken/eu-data-tiles/internal/repository/postgres"
	"github.com/TjarkGerken/eu-data-tiles/internal/usecase"
	"github.com/TjarkGerken/eu-data-tiles/internal/worker"
	"github.com/TjarkGerken/eu-data-tiles/internal/worker/staging"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting EU Data Tiles")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
	)

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelMigrate()
	if err := db.Migrate(migrateCtx); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Object store client
	store, err := blob.NewStore(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object store", zap.Error(err))
	}

	// 6. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}
	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}
	log.Info("All connections healthy")

	// 7. Repositories
	layerRepo := postgres.NewLayerRepository(db, log)
	cacheRepo := cache.NewCacheRepository(redisClient)
	sourceRepo := blob.NewSourceRepository(store, log)
	log.Info("Repositories initialized")

	// 8. Use cases
	converter := gdal.NewConverter(&cfg.Optimizer, log)
	engine := raster.NewEngine(log)
	sourceCache := raster.NewSourceCache(cfg.Cache.SourceCacheTTL)

	ingestUC := usecase.NewIngestUseCase(store, layerRepo, cacheRepo, converter, cfg, log)
	catalogUC := usecase.NewCatalogUseCase(store, sourceRepo, layerRepo, cacheRepo, log)
	tileUC := usecase.NewTileUseCase(sourceRepo, layerRepo, cacheRepo, sourceCache, engine, cfg, log)
	log.Info("Use cases initialized")

	// 9. HTTP handlers and server
	tileHandler := handler.NewTileHandler(tileUC, log)
	layerHandler := handler.NewLayerHandler(ingestUC, catalogUC, log)

	server := httpDelivery.NewServer(cfg, log, tileHandler, layerHandler)
	log.Info("HTTP server initialized")

	// 10. Background workers
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var manager *worker.WorkerManager
	if cfg.Worker.Enabled {
		manager = worker.NewWorkerManager(log)
		manager.Register(staging.NewSweeper(cfg, log))
		if err := manager.Start(workerCtx); err != nil {
			log.Error("Failed to start workers", zap.Error(err))
		}
	}

	// 11. Start server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 12. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if manager != nil {
		cancelWorkers()
		if err := manager.Stop(); err != nil {
			log.Error("Worker shutdown error", zap.Error(err))
		}
	}

	log.Info("Server stopped successfully")
}
