package queue

import (
	"database/sql"
	"fmt"
	"time"
)

// JobRepository mirrors training jobs into the training_jobs table.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Save upserts the job row.
func (r *JobRepository) Save(job *Job) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO training_jobs (
			id, status, model_id, error, samples, iteration,
			cost, smoothed_cost, created_at, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		job.ID, string(job.Status), nullString(job.ModelID), nullString(job.Error),
		job.Samples, job.Iteration, job.Cost, job.SmoothedCost,
		job.CreatedAt.Unix(), nullUnix(job.StartedAt), nullUnix(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// Delete removes job rows by ID.
func (r *JobRepository) Delete(ids ...string) error {
	for _, id := range ids {
		if _, err := r.db.Exec(`DELETE FROM training_jobs WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete job %s: %w", id, err)
		}
	}
	return nil
}

// MarkInterrupted fails every job left queued or running by a previous
// process and returns how many rows changed.
func (r *JobRepository) MarkInterrupted(now time.Time) (int64, error) {
	result, err := r.db.Exec(`
		UPDATE training_jobs
		SET status = ?, error = 'interrupted by shutdown', finished_at = ?
		WHERE status IN (?, ?)
	`, string(StatusFailed), now.Unix(), string(StatusQueued), string(StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to mark interrupted jobs: %w", err)
	}
	return result.RowsAffected()
}

// CountByStatus returns the number of stored jobs per status.
func (r *JobRepository) CountByStatus() (map[Status]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM training_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
