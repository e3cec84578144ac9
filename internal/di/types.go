/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and the training binary.
 */
package di

import (
	"github.com/aristath/qae/internal/database"
	"github.com/aristath/qae/internal/events"
	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/aristath/qae/internal/modules/models"
	"github.com/aristath/qae/internal/queue"
	"github.com/aristath/qae/internal/reliability"
	"github.com/aristath/qae/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Database: a single SQLite model store (models, training_jobs)
 * - Repositories: models and training job persistence
 * - Services: model cache, training queue, event bus, backups
 * - Scheduler: cron-driven maintenance jobs
 */
type Container struct {
	DB *database.DB

	// Repositories
	ModelRepo *models.Repository
	JobRepo   *queue.JobRepository

	// Services
	EventBus      *events.Bus
	ModelService  *models.Service
	TrainingQueue *queue.Manager
	BackupService *reliability.BackupService // nil when backups are disabled

	Scheduler *scheduler.Scheduler

	// ClassifierDefaults seed every training request before overrides.
	ClassifierDefaults classifier.Config
}

// JobInstances holds the registered scheduler jobs for manual triggering
type JobInstances struct {
	WALCheckpoint scheduler.Job
	PruneJobs     scheduler.Job
	Backup        scheduler.Job // nil when backups are disabled
}

// All returns the registered jobs keyed by name.
func (j *JobInstances) All() map[string]scheduler.Job {
	out := make(map[string]scheduler.Job)
	for _, job := range []scheduler.Job{j.WALCheckpoint, j.PruneJobs, j.Backup} {
		if job != nil {
			out[job.Name()] = job
		}
	}
	return out
}

// Close releases the model store. Background services must be stopped first.
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
