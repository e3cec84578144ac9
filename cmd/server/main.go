// Package main is the entry point for the quantum autoencoder classifier service.
// It serves the training and prediction API, runs the background training
// queue and the maintenance scheduler, and streams events to clients.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/qae/internal/config"
	"github.com/aristath/qae/internal/di"
	"github.com/aristath/qae/internal/server"
	"github.com/aristath/qae/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Loads configuration from environment variables (.env file supported)
// 2. Initializes logging
// 3. Wires all dependencies via the DI container
// 4. Starts the training queue, the scheduler and the HTTP server
// 5. Waits for a shutdown signal and stops everything in reverse order
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting QAE classifier service")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Jobs left running by a previous process are marked failed on start
	container.TrainingQueue.Start(ctx)
	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	container.Scheduler.Stop()
	container.TrainingQueue.Stop()
	log.Info().Msg("Training queue stopped")

	if err := container.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close model store")
	}

	log.Info().Msg("Server stopped")
}
