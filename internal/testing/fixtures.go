package testing

import (
	"testing"
	"time"

	"github.com/aristath/qae/internal/modules/classifier"
)

// NewFastConfig returns a classifier configuration small enough for unit tests
func NewFastConfig() classifier.Config {
	cfg := classifier.DefaultConfig()
	cfg.Reps = 1
	cfg.Shots = 64
	cfg.MaxIterations = 5
	return cfg
}

// NewTrainingSetFixture returns a tiny two-class set of four-feature samples
func NewTrainingSetFixture() ([][]float64, []int) {
	return [][]float64{
			{1, 0, 0, 0},
			{0, 0, 1, 0},
			{0.9, 0.1, 0, 0},
			{0, 0.1, 0.9, 0},
		},
		[]int{0, 1, 0, 1}
}

// NewModelFixture returns a trained-looking binary model over nFeatures
// features with deterministic parameters
func NewModelFixture(t *testing.T, nFeatures int) *classifier.Model {
	t.Helper()

	layout, err := classifier.NewLayout(nFeatures, 2, 1)
	if err != nil {
		t.Fatalf("Failed to build layout: %v", err)
	}

	cfg := NewFastConfig()
	asm, err := classifier.NewAssembler(layout, cfg.Ansatz, cfg.Reps)
	if err != nil {
		t.Fatalf("Failed to build assembler: %v", err)
	}

	params := make([]float64, asm.NumParameters())
	for i := range params {
		params[i] = 0.1 * float64(i+1)
	}

	return &classifier.Model{
		Layout:      layout,
		Config:      cfg,
		Params:      params,
		InitialCost: 0.41,
		FinalCost:   0.12,
		History:     []float64{0.4, 0.3, 0.12},
		Iterations:  3,
		Evaluations: 17,
		TrainedAt:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}
