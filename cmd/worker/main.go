package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/logger"
	"github.com/TjarkGerken/eu-data-tiles/internal/worker"
	"github.com/TjarkGerken/eu-data-tiles/internal/worker/staging"
)

// Standalone worker process for deployments that keep maintenance tasks
// off the serving instances.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting worker process")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := worker.NewWorkerManager(log)
	manager.Register(staging.NewSweeper(cfg, log))

	if err := manager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down workers")
	cancel()
	if err := manager.Stop(); err != nil {
		log.Error("Worker shutdown error", zap.Error(err))
	}
	log.Info("Worker process stopped")
}
