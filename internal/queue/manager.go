package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aristath/qae/internal/events"
	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/aristath/qae/internal/modules/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultCapacity is the number of jobs that may wait behind the running one.
const DefaultCapacity = 16

// ModelStore persists trained models.
type ModelStore interface {
	Store(name string, model *classifier.Model) (*models.StoredModel, error)
}

// ExecutorFactory returns the backend a job trains on. A nil factory, or a
// nil executor, trains on the built-in simulator.
type ExecutorFactory func(cfg classifier.Config) classifier.Executor

type pending struct {
	job *Job
	req Request
}

// Manager owns the training queue. Jobs run one at a time on a single worker.
type Manager struct {
	store    ModelStore
	repo     *JobRepository
	bus      *events.Bus
	executor ExecutorFactory
	log      zerolog.Logger

	mu      sync.RWMutex
	jobs    map[string]*Job
	queue   chan pending
	running bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a training manager. repo and bus may be nil.
func NewManager(store ModelStore, repo *JobRepository, bus *events.Bus, log zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		repo:  repo,
		bus:   bus,
		log:   log.With().Str("component", "training_queue").Logger(),
		jobs:  make(map[string]*Job),
		queue: make(chan pending, DefaultCapacity),
	}
}

// SetExecutorFactory overrides the backend used by new jobs.
func (m *Manager) SetExecutorFactory(f ExecutorFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executor = f
}

// Submit validates req and queues it, returning the job ID.
func (m *Manager) Submit(req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	job := &Job{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Status:        StatusQueued,
		Samples:       len(req.X),
		MaxIterations: req.Config.MaxIterations,
		CreatedAt:     time.Now(),
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return "", ErrStopped
	}
	select {
	case m.queue <- pending{job: job, req: req}:
		m.jobs[job.ID] = job
	default:
		m.mu.Unlock()
		return "", ErrQueueFull
	}
	m.mu.Unlock()

	m.persist(job)
	m.log.Info().
		Str("job_id", job.ID).
		Int("samples", job.Samples).
		Msg("Training job queued")

	return job.ID, nil
}

// Start launches the worker. Calling Start twice is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running || m.stopped {
		return
	}
	if m.repo != nil {
		if n, err := m.repo.MarkInterrupted(time.Now()); err != nil {
			m.log.Warn().Err(err).Msg("Failed to mark interrupted jobs")
		} else if n > 0 {
			m.log.Warn().Int64("jobs", n).Msg("Marked jobs interrupted by previous shutdown")
		}
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true
	m.wg.Add(1)
	go m.work(ctx)

	m.log.Info().Msg("Training queue started")
}

// Stop cancels the running job, fails queued ones as cancelled and waits
// for the worker to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()

	for {
		select {
		case p := <-m.queue:
			m.finish(p.job, StatusCancelled, "", context.Canceled)
		default:
			m.log.Info().Msg("Training queue stopped")
			return
		}
	}
}

func (m *Manager) work(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-m.queue:
			m.run(ctx, p)
		}
	}
}

func (m *Manager) run(ctx context.Context, p pending) {
	job := p.job
	start := time.Now()

	m.mu.Lock()
	job.Status = StatusRunning
	job.StartedAt = &start
	factory := m.executor
	m.mu.Unlock()
	m.persist(job)

	if m.bus != nil {
		features := 0
		if len(p.req.X) > 0 {
			features = len(p.req.X[0])
		}
		m.bus.Emit("queue", &events.TrainingStartedData{
			JobID:    job.ID,
			Samples:  job.Samples,
			Features: features,
		})
	}

	var backend classifier.Executor
	if factory != nil {
		backend = factory(p.req.Config)
	}
	clf := classifier.New(p.req.Config, backend, m.log)
	reporter := NewProgressReporter(m.bus, job.ID, p.req.Config.MaxIterations, func(iter int, cost, smoothed float64, persist bool) {
		m.mu.Lock()
		job.Iteration = iter
		job.Cost = &cost
		job.SmoothedCost = &smoothed
		m.mu.Unlock()
		if persist {
			m.persist(job)
		}
	})
	clf.OnProgress(reporter.Report)

	model, err := clf.Train(ctx, p.req.X, p.req.Y)
	if err != nil {
		status := StatusFailed
		if errors.Is(err, context.Canceled) {
			status = StatusCancelled
		}
		m.finish(job, status, "", err)
		return
	}

	stored, err := m.store.Store(p.req.Name, model)
	if err != nil {
		m.finish(job, StatusFailed, "", fmt.Errorf("store model: %w", err))
		return
	}

	m.finish(job, StatusCompleted, stored.ID, nil)
	if m.bus != nil {
		m.bus.Emit("queue", &events.TrainingCompletedData{
			JobID:       job.ID,
			ModelID:     stored.ID,
			InitialCost: model.InitialCost,
			FinalCost:   model.FinalCost,
			Iterations:  model.Iterations,
			Duration:    time.Since(start).Seconds(),
		})
	}
}

func (m *Manager) finish(job *Job, status Status, modelID string, err error) {
	now := time.Now()

	m.mu.Lock()
	job.Status = status
	job.ModelID = modelID
	job.FinishedAt = &now
	if err != nil {
		job.Error = err.Error()
	}
	m.mu.Unlock()
	m.persist(job)

	if err == nil {
		m.log.Info().Str("job_id", job.ID).Str("model_id", modelID).Msg("Training job completed")
		return
	}

	m.log.Error().Err(err).Str("job_id", job.ID).Str("status", string(status)).Msg("Training job did not complete")
	if m.bus != nil {
		m.bus.Emit("queue", &events.TrainingFailedData{JobID: job.ID, Error: err.Error()})
	}
}

func (m *Manager) persist(job *Job) {
	if m.repo == nil {
		return
	}
	snapshot := m.snapshot(job)
	if err := m.repo.Save(&snapshot); err != nil {
		m.log.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job")
	}
}

func (m *Manager) snapshot(job *Job) Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *job
}

// Get returns a snapshot of the job with the given ID.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return *job, nil
}

// List returns snapshots of all tracked jobs, newest first.
func (m *Manager) List() []Job {
	m.mu.RLock()
	out := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, *job)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Counts returns the number of tracked jobs per status.
func (m *Manager) Counts() map[Status]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[Status]int)
	for _, job := range m.jobs {
		counts[job.Status]++
	}
	return counts
}

// PruneFinished forgets finished jobs that ended more than olderThan ago
// and returns how many were removed.
func (m *Manager) PruneFinished(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	m.mu.Lock()
	var ids []string
	for id, job := range m.jobs {
		if job.Status.Finished() && job.FinishedAt != nil && !job.FinishedAt.After(cutoff) {
			ids = append(ids, id)
			delete(m.jobs, id)
		}
	}
	m.mu.Unlock()

	if m.repo != nil && len(ids) > 0 {
		if err := m.repo.Delete(ids...); err != nil {
			return len(ids), err
		}
	}
	if len(ids) > 0 {
		m.log.Info().Int("pruned", len(ids)).Msg("Pruned finished training jobs")
	}
	return len(ids), nil
}
