package classifier

import (
	"fmt"

	"github.com/aristath/qae/internal/modules/circuits"
)

// OptimizerMethod identifies a derivative-free optimizer.
type OptimizerMethod string

const (
	// NelderMead is the downhill simplex method.
	NelderMead OptimizerMethod = "nelder-mead"
	// CMAES is the covariance matrix adaptation evolution strategy.
	CMAES OptimizerMethod = "cma-es"
)

// Config is the constructor-level configuration of a classifier.
type Config struct {
	Ansatz        circuits.AnsatzVariant `msgpack:"ansatz" json:"ansatz"`
	Reps          int                    `msgpack:"reps" json:"reps"`
	LabelQubits   int                    `msgpack:"label_qubits" json:"label_qubits"` // 0 derives it from the labels
	Shots         int                    `msgpack:"shots" json:"shots"`
	Optimizer     OptimizerMethod        `msgpack:"optimizer" json:"optimizer"`
	MaxIterations int                    `msgpack:"max_iterations" json:"max_iterations"`
	Seed          uint64                 `msgpack:"seed" json:"seed"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Ansatz:        circuits.Circular,
		Reps:          20,
		Shots:         256,
		Optimizer:     NelderMead,
		MaxIterations: 500,
		Seed:          42,
	}
}

// Validate checks the configuration before any circuit is built.
func (c Config) Validate() error {
	if c.Reps <= 0 {
		return fmt.Errorf("reps must be positive, got %d", c.Reps)
	}
	if c.Shots <= 0 {
		return fmt.Errorf("shots must be positive, got %d", c.Shots)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.LabelQubits < 0 {
		return fmt.Errorf("label qubits must not be negative, got %d", c.LabelQubits)
	}
	if _, ok := optimizerMethods[c.Optimizer]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedOptimizer, c.Optimizer)
	}
	return nil
}
