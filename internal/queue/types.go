// Package queue runs classifier training jobs one at a time in the background.
package queue

import (
	"errors"
	"time"

	"github.com/aristath/qae/internal/modules/classifier"
)

var (
	// ErrJobNotFound is returned when no job has the requested ID.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueFull is returned when the pending queue is at capacity.
	ErrQueueFull = errors.New("training queue is full")
	// ErrStopped is returned when submitting to a stopped manager.
	ErrStopped = errors.New("training queue is stopped")
	// ErrInvalidRequest is returned for malformed training requests.
	ErrInvalidRequest = errors.New("invalid training request")
)

// Status is the lifecycle state of a training job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Finished reports whether the job will not change again.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Request is a training job submission.
type Request struct {
	Name   string
	X      [][]float64
	Y      []int
	Config classifier.Config
}

func (r Request) validate() error {
	if len(r.X) == 0 {
		return errors.Join(ErrInvalidRequest, classifier.ErrEmptyDataset)
	}
	if len(r.X) != len(r.Y) {
		return errors.Join(ErrInvalidRequest, classifier.ErrDimension)
	}
	if err := r.Config.Validate(); err != nil {
		return errors.Join(ErrInvalidRequest, err)
	}
	return nil
}

// Job is a snapshot of a training job.
type Job struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Status        Status     `json:"status"`
	Samples       int        `json:"samples"`
	Iteration     int        `json:"iteration"`
	MaxIterations int        `json:"max_iterations"`
	Cost          *float64   `json:"cost,omitempty"`
	SmoothedCost  *float64   `json:"smoothed_cost,omitempty"`
	ModelID       string     `json:"model_id,omitempty"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
