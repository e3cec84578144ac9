// Package di provides dependency injection for service implementations.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/qae/internal/config"
	"github.com/aristath/qae/internal/events"
	"github.com/aristath/qae/internal/modules/models"
	"github.com/aristath/qae/internal/queue"
	"github.com/aristath/qae/internal/reliability"
	"github.com/aristath/qae/internal/scheduler"
	"github.com/rs/zerolog"
)

// InitializeServices creates all services. Nothing is started here.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.ClassifierDefaults = cfg.ClassifierConfig()

	container.EventBus = events.NewBus(log)
	container.ModelService = models.NewService(container.ModelRepo, log)
	container.TrainingQueue = queue.NewManager(container.ModelService, container.JobRepo, container.EventBus, log)
	container.Scheduler = scheduler.New(log)

	if cfg.Backup.Enabled {
		store, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup object store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(container.DB, store, cfg.DataDir, container.EventBus, log)
	}

	log.Info().Bool("backups", container.BackupService != nil).Msg("Services initialized")

	return nil
}
