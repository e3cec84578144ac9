// Package classifier trains and runs a quantum autoencoder classifier.
//
// Training encodes every sample into its own circuit template, compares the
// label register against a reference state of the true class with a swap
// test, and minimizes the mean probability of the swap test failing with a
// derivative-free optimizer. The result is an immutable Model that decodes
// the measured label register into class predictions.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aristath/qae/internal/quantum/circuit"
	"github.com/aristath/qae/internal/quantum/simulator"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrNotTrained is returned when predicting without trained parameters.
	ErrNotTrained = errors.New("classifier is not trained")
	// ErrEmptyDataset is returned when training on no samples.
	ErrEmptyDataset = errors.New("empty training set")
	// ErrTrainingInProgress is returned when Train is called while a previous
	// call is still running.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// Executor runs a bound circuit and returns its measurement counts.
type Executor interface {
	Run(ctx context.Context, bound *circuit.Bound, shots int) (simulator.Counts, error)
}

// State is the training lifecycle of a Classifier.
type State int

const (
	StateUninitialized State = iota
	StateTemplatesBuilt
	StateOptimizing
	StateTrained
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateTemplatesBuilt:
		return "templates-built"
	case StateOptimizing:
		return "optimizing"
	case StateTrained:
		return "trained"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Classifier drives training and holds the most recently trained model.
type Classifier struct {
	cfg      Config
	backend  Executor
	progress ProgressFunc
	log      zerolog.Logger

	mu       sync.RWMutex
	state    State
	training bool
	model    *Model
}

// New returns an untrained classifier. A nil backend is replaced by a
// simulator seeded with cfg.Seed.
func New(cfg Config, backend Executor, log zerolog.Logger) *Classifier {
	if backend == nil {
		backend = simulator.New(cfg.Seed)
	}
	return &Classifier{
		cfg:     cfg,
		backend: backend,
		log:     log.With().Str("component", "qae_classifier").Logger(),
	}
}

// OnProgress registers a callback for every optimizer iteration.
func (c *Classifier) OnProgress(fn ProgressFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = fn
}

// Config returns the classifier configuration.
func (c *Classifier) Config() Config {
	return c.cfg
}

// State returns the current lifecycle state.
func (c *Classifier) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Model returns the last trained model, or nil.
func (c *Classifier) Model() *Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

func (c *Classifier) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	c.log.Debug().Str("from", prev.String()).Str("to", s.String()).Msg("State transition")
}

// Train fits the classifier on X and y. The number of classes is max(y)+1.
// A failed call leaves any previously trained model in place.
func (c *Classifier) Train(ctx context.Context, X [][]float64, y []int) (*Model, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%w: %d samples but %d labels", ErrDimension, len(X), len(y))
	}

	c.mu.Lock()
	if c.training {
		c.mu.Unlock()
		return nil, ErrTrainingInProgress
	}
	c.training = true
	progress := c.progress
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.training = false
		c.mu.Unlock()
	}()

	model, err := c.train(ctx, X, y, progress)
	if err != nil {
		c.mu.Lock()
		if c.model != nil {
			c.state = StateTrained
		} else {
			c.state = StateUninitialized
		}
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("Training failed")
		return nil, err
	}

	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
	c.setState(StateTrained)
	return model, nil
}

func (c *Classifier) train(ctx context.Context, X [][]float64, y []int, progress ProgressFunc) (*Model, error) {
	start := time.Now()

	nClasses := 0
	for i, label := range y {
		if label < 0 {
			return nil, fmt.Errorf("sample %d: %w: %d", i, ErrInvalidLabel, label)
		}
		if label+1 > nClasses {
			nClasses = label + 1
		}
	}

	layout, err := NewLayout(len(X[0]), nClasses, c.cfg.LabelQubits)
	if err != nil {
		return nil, err
	}
	asm, err := NewAssembler(layout, c.cfg.Ansatz, c.cfg.Reps)
	if err != nil {
		return nil, err
	}

	templates := make([]*circuit.Circuit, len(X))
	for i := range X {
		tpl, err := asm.TrainingCircuit(X[i], y[i])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		templates[i] = tpl.Transpile()
	}
	c.setState(StateTemplatesBuilt)
	c.log.Info().
		Int("samples", len(templates)).
		Int("classes", layout.NClasses).
		Int("latent_qubits", layout.LatentQubits).
		Int("label_qubits", layout.LabelQubits).
		Int("parameters", asm.NumParameters()).
		Int("ops_per_template", len(templates[0].Ops)).
		Msg("Compiled training templates")

	cost := func(theta []float64) (float64, error) {
		total := 0.0
		for i, tpl := range templates {
			bound, err := tpl.Bind(theta)
			if err != nil {
				return 0, err
			}
			counts, err := c.backend.Run(ctx, bound, c.cfg.Shots)
			if err != nil {
				return 0, fmt.Errorf("sample %d: %w", i, err)
			}
			total += float64(counts["1"]) / float64(c.cfg.Shots)
		}
		return total / float64(len(templates)), nil
	}

	theta0 := initialParameters(asm.NumParameters(), c.cfg.Seed)
	initialCost, err := cost(theta0)
	if err != nil {
		return nil, err
	}

	opt, err := NewOptimizer(c.cfg.Optimizer, c.cfg.Seed, func(p Progress) {
		c.log.Debug().Int("iteration", p.Iteration).Int("evaluations", p.Evaluations).Float64("cost", p.Cost).Msg("Optimizer iteration")
		if progress != nil {
			progress(p)
		}
	})
	if err != nil {
		return nil, err
	}

	c.setState(StateOptimizing)
	c.log.Info().Str("optimizer", string(c.cfg.Optimizer)).Int("max_iterations", c.cfg.MaxIterations).Float64("initial_cost", initialCost).Msg("Starting optimization")

	res, err := opt.Minimize(ctx, cost, theta0, c.cfg.MaxIterations)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	c.log.Info().
		Float64("initial_cost", initialCost).
		Float64("final_cost", res.F).
		Int("iterations", res.Iterations).
		Int("evaluations", res.Evaluations).
		Str("status", res.Status).
		Dur("duration", time.Since(start)).
		Msg("Training complete")

	return &Model{
		Layout:      layout,
		Config:      c.cfg,
		Params:      res.X,
		InitialCost: initialCost,
		FinalCost:   res.F,
		History:     res.History,
		Iterations:  res.Iterations,
		Evaluations: res.Evaluations,
		TrainedAt:   time.Now(),
	}, nil
}

// Predict returns the predicted class of every sample using the trained model.
func (c *Classifier) Predict(ctx context.Context, X [][]float64) ([]int, error) {
	m := c.Model()
	if m == nil {
		return nil, ErrNotTrained
	}
	return m.Predict(ctx, c.backend, X)
}

// PredictProba returns per-class probabilities using the trained model.
func (c *Classifier) PredictProba(ctx context.Context, X [][]float64) ([][]float64, error) {
	m := c.Model()
	if m == nil {
		return nil, ErrNotTrained
	}
	return m.PredictProba(ctx, c.backend, X)
}

// initialParameters draws n angles uniformly from [0, 2π).
func initialParameters(n int, seed uint64) []float64 {
	dist := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: rand.NewPCG(seed, seed+1)}
	theta := make([]float64, n)
	for i := range theta {
		theta[i] = dist.Rand()
	}
	return theta
}
