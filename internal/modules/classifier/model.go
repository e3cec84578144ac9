package classifier

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aristath/qae/internal/quantum/circuit"
)

// Prober returns the exact outcome distribution of a bound circuit.
type Prober interface {
	Probabilities(ctx context.Context, bound *circuit.Bound) (map[string]float64, error)
}

// Model is a trained classifier. It is never modified after training and may
// be shared by concurrent predictions.
type Model struct {
	Layout      Layout    `msgpack:"layout" json:"layout"`
	Config      Config    `msgpack:"config" json:"config"`
	Params      []float64 `msgpack:"params" json:"params"`
	InitialCost float64   `msgpack:"initial_cost" json:"initial_cost"`
	FinalCost   float64   `msgpack:"final_cost" json:"final_cost"`
	History     []float64 `msgpack:"history" json:"history"`
	Iterations  int       `msgpack:"iterations" json:"iterations"`
	Evaluations int       `msgpack:"evaluations" json:"evaluations"`
	TrainedAt   time.Time `msgpack:"trained_at" json:"trained_at"`
}

func (m *Model) assembler() (*Assembler, error) {
	if m == nil || len(m.Params) == 0 {
		return nil, ErrNotTrained
	}
	asm, err := NewAssembler(m.Layout, m.Config.Ansatz, m.Config.Reps)
	if err != nil {
		return nil, err
	}
	if asm.NumParameters() != len(m.Params) {
		return nil, fmt.Errorf("%w: model has %d parameters, ansatz needs %d", ErrNotTrained, len(m.Params), asm.NumParameters())
	}
	return asm, nil
}

// PredictionCircuit returns the bound, transpiled prediction circuit for x.
func (m *Model) PredictionCircuit(x []float64) (*circuit.Bound, error) {
	asm, err := m.assembler()
	if err != nil {
		return nil, err
	}
	return m.bindPrediction(asm, x)
}

func (m *Model) bindPrediction(asm *Assembler, x []float64) (*circuit.Bound, error) {
	c, err := asm.PredictionCircuit(x)
	if err != nil {
		return nil, err
	}
	return c.Transpile().Bind(m.Params)
}

// outcomes executes the prediction circuit of every sample and hands the
// label-register counts to visit.
func (m *Model) outcomes(ctx context.Context, backend Executor, X [][]float64, visit func(i int, counts map[int]int, shots int)) error {
	asm, err := m.assembler()
	if err != nil {
		return err
	}
	for i, x := range X {
		bound, err := m.bindPrediction(asm, x)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		counts, err := backend.Run(ctx, bound, m.Config.Shots)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		decoded := make(map[int]int, len(counts))
		for key, n := range counts {
			v, err := strconv.ParseUint(key, 2, 32)
			if err != nil {
				return fmt.Errorf("sample %d: bad outcome %q: %w", i, key, err)
			}
			decoded[int(v)] += n
		}
		visit(i, decoded, counts.Shots())
	}
	return nil
}

// Predict returns the most frequent label-register value of every sample.
// Ties go to the lowest value.
func (m *Model) Predict(ctx context.Context, backend Executor, X [][]float64) ([]int, error) {
	out := make([]int, len(X))
	err := m.outcomes(ctx, backend, X, func(i int, counts map[int]int, _ int) {
		out[i] = argmaxCount(counts)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PredictProba returns, per sample, the fraction of shots that decoded to
// each class. Outcomes that decode past the last class are discarded and the
// remainder renormalized; a sample whose shots were all discarded gets a
// uniform row.
func (m *Model) PredictProba(ctx context.Context, backend Executor, X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	err := m.outcomes(ctx, backend, X, func(i int, counts map[int]int, shots int) {
		weights := make(map[int]float64, len(counts))
		for v, n := range counts {
			weights[v] = float64(n) / float64(shots)
		}
		out[i] = classRow(weights, m.Layout.NClasses)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PredictProbaExact is PredictProba with the exact outcome distribution in
// place of sampled frequencies.
func (m *Model) PredictProbaExact(ctx context.Context, prober Prober, X [][]float64) ([][]float64, error) {
	asm, err := m.assembler()
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		bound, err := m.bindPrediction(asm, x)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		probs, err := prober.Probabilities(ctx, bound)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		weights := make(map[int]float64, len(probs))
		for key, p := range probs {
			v, err := strconv.ParseUint(key, 2, 32)
			if err != nil {
				return nil, fmt.Errorf("sample %d: bad outcome %q: %w", i, key, err)
			}
			weights[int(v)] += p
		}
		out[i] = classRow(weights, m.Layout.NClasses)
	}
	return out, nil
}

func argmaxCount(counts map[int]int) int {
	best, bestN := -1, -1
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

func classRow(weights map[int]float64, nClasses int) []float64 {
	row := make([]float64, nClasses)
	total := 0.0
	for v, w := range weights {
		if v < nClasses {
			row[v] += w
			total += w
		}
	}
	if total == 0 {
		for i := range row {
			row[i] = 1 / float64(nClasses)
		}
		return row
	}
	for i := range row {
		row[i] /= total
	}
	return row
}
