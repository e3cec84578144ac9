package scheduler

import (
	"context"
	"time"

	"github.com/aristath/qae/internal/database"
	"github.com/rs/zerolog"
)

// WALCheckpointJob checks the model store's integrity and truncates its WAL.
type WALCheckpointJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewWALCheckpointJob creates a new WAL checkpoint job.
func NewWALCheckpointJob(db *database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		db:  db,
		log: log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes the WAL checkpoint job
func (j *WALCheckpointJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		return err
	}
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}

	if stats, err := j.db.GetStats(); err == nil {
		j.log.Debug().
			Str("database", j.db.Name()).
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Int64("freelist_pages", stats.FreelistCount).
			Msg("WAL checkpoint completed")
	}
	return nil
}

// JobPruner forgets finished training jobs.
type JobPruner interface {
	PruneFinished(olderThan time.Duration) (int, error)
}

// PruneJobsJob removes finished training jobs past their retention.
type PruneJobsJob struct {
	pruner    JobPruner
	retention time.Duration
	log       zerolog.Logger
}

// NewPruneJobsJob creates a new job pruning job.
func NewPruneJobsJob(pruner JobPruner, retention time.Duration, log zerolog.Logger) *PruneJobsJob {
	return &PruneJobsJob{
		pruner:    pruner,
		retention: retention,
		log:       log.With().Str("job", "prune_training_jobs").Logger(),
	}
}

// Name returns the job name
func (j *PruneJobsJob) Name() string {
	return "prune_training_jobs"
}

// Run executes the prune job
func (j *PruneJobsJob) Run() error {
	n, err := j.pruner.PruneFinished(j.retention)
	if err != nil {
		return err
	}
	if n > 0 {
		j.log.Info().Int("pruned", n).Dur("retention", j.retention).Msg("Pruned training jobs")
	}
	return nil
}
