// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/qae/internal/config"
	"github.com/aristath/qae/internal/reliability"
	"github.com/aristath/qae/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates maintenance jobs and registers them with the scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	instances := &JobInstances{
		WALCheckpoint: scheduler.NewWALCheckpointJob(container.DB, log),
		PruneJobs:     scheduler.NewPruneJobsJob(container.TrainingQueue, cfg.JobRetention, log),
	}

	if err := container.Scheduler.AddJob(cfg.MaintenanceSchedule, instances.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", instances.WALCheckpoint.Name(), err)
	}
	if err := container.Scheduler.AddJob(cfg.MaintenanceSchedule, instances.PruneJobs); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", instances.PruneJobs.Name(), err)
	}

	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
		if err := container.Scheduler.AddJob(cfg.Backup.Schedule, instances.Backup); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", instances.Backup.Name(), err)
		}
	}

	log.Info().Int("jobs", len(instances.All())).Msg("Jobs registered")

	return instances, nil
}
