package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"

	"github.com/aristath/qae/internal/quantum/circuit"
	"gonum.org/v1/gonum/stat/distuv"
)

const normTolerance = 1e-8

var (
	// ErrUnsupportedGate is returned for a gate kind the simulator cannot apply.
	ErrUnsupportedGate = errors.New("unsupported gate")
	// ErrInvalidState is returned when an Initialize operation carries a
	// malformed amplitude vector.
	ErrInvalidState = errors.New("invalid initial state")
	// ErrMidCircuitMeasurement is returned when a gate acts on a qubit after
	// it has been measured.
	ErrMidCircuitMeasurement = errors.New("measurements must be terminal")
	// ErrNoMeasurements is returned when sampling a circuit that measures nothing.
	ErrNoMeasurements = errors.New("circuit has no measurements")
	// ErrTooManyQubits is returned when a circuit exceeds MaxQubits.
	ErrTooManyQubits = errors.New("too many qubits")
	// ErrInvalidShots is returned for a non-positive shot count.
	ErrInvalidShots = errors.New("shots must be positive")
)

// Counts maps classical bitstrings to the number of shots that produced them.
type Counts map[string]int

// Shots returns the total number of shots recorded.
func (c Counts) Shots() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Frequency returns the fraction of shots that produced key.
func (c Counts) Frequency(key string) float64 {
	total := c.Shots()
	if total == 0 {
		return 0
	}
	return float64(c[key]) / float64(total)
}

// Keys returns the observed bitstrings in ascending integer order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.ParseUint(keys[i], 2, 64)
		b, _ := strconv.ParseUint(keys[j], 2, 64)
		return a < b
	})
	return keys
}

// Backend runs bound circuits and samples their measurement outcomes. A
// Backend owns its random source and is safe for concurrent use; two
// backends created with the same seed produce the same samples for the same
// sequence of runs.
type Backend struct {
	mu  sync.Mutex
	src rand.Source
}

// New returns a backend whose sampling is driven by seed.
func New(seed uint64) *Backend {
	return &Backend{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// Statevector executes the circuit and returns the final state. Measurements
// are ignored.
func (b *Backend) Statevector(ctx context.Context, bound *circuit.Bound) (*StateVector, error) {
	if bound.NumQubits > MaxQubits {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyQubits, bound.NumQubits, MaxQubits)
	}
	if err := checkTerminalMeasurements(bound); err != nil {
		return nil, err
	}
	state := NewStateVector(bound.NumQubits)
	for i, op := range bound.Ops {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := state.Apply(op); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	return state, nil
}

// Probabilities returns the exact distribution over classical bitstrings.
// Outcomes with zero probability are omitted.
func (b *Backend) Probabilities(ctx context.Context, bound *circuit.Bound) (map[string]float64, error) {
	weights, err := b.outcomeWeights(ctx, bound)
	if err != nil {
		return nil, err
	}
	probs := make(map[string]float64)
	for v, w := range weights {
		if w > 0 {
			probs[bitstring(v, bound.NumClbits)] = w
		}
	}
	return probs, nil
}

// Run executes the circuit and samples its measured qubits shots times.
func (b *Backend) Run(ctx context.Context, bound *circuit.Bound, shots int) (Counts, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShots, shots)
	}
	weights, err := b.outcomeWeights(ctx, bound)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	dist := distuv.NewCategorical(weights, b.src)
	counts := make(Counts)
	for i := 0; i < shots; i++ {
		counts[bitstring(int(dist.Rand()), bound.NumClbits)]++
	}
	return counts, nil
}

// outcomeWeights folds the final state onto the classical register.
func (b *Backend) outcomeWeights(ctx context.Context, bound *circuit.Bound) ([]float64, error) {
	measured := bound.MeasuredQubits()
	if len(measured) == 0 {
		return nil, ErrNoMeasurements
	}
	state, err := b.Statevector(ctx, bound)
	if err != nil {
		return nil, err
	}
	weights := make([]float64, 1<<bound.NumClbits)
	for i := range state.Amplitudes {
		p := state.Probability(i)
		if p == 0 {
			continue
		}
		outcome := 0
		for q, clbit := range measured {
			if i&(1<<q) != 0 {
				outcome |= 1 << clbit
			}
		}
		weights[outcome] += p
	}
	return weights, nil
}

func checkTerminalMeasurements(bound *circuit.Bound) error {
	measured := make(map[int]bool)
	for i, op := range bound.Ops {
		for _, q := range op.Qubits {
			if measured[q] {
				return fmt.Errorf("%w: op %d (%s) acts on measured qubit %d", ErrMidCircuitMeasurement, i, op.Kind, q)
			}
		}
		if op.Kind == circuit.Measure {
			measured[op.Qubits[0]] = true
		}
	}
	return nil
}

func bitstring(v, width int) string {
	if width == 0 {
		return ""
	}
	return fmt.Sprintf("%0*b", width, v)
}
