package classifier

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/aristath/qae/internal/modules/circuits"
	"github.com/aristath/qae/internal/quantum/circuit"
	"github.com/aristath/qae/internal/quantum/simulator"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Reps = 1
	cfg.Shots = 128
	cfg.MaxIterations = 15
	cfg.Seed = 11
	return cfg
}

func toyDataset() ([][]float64, []int) {
	X := [][]float64{
		{0.9, 0.1, 0.1, 0.0, 0.2, 0.0, 0.1, 0.0},
		{0.1, 0.8, 0.0, 0.2, 0.0, 0.1, 0.0, 0.1},
		{0.0, 0.1, 0.9, 0.1, 0.0, 0.0, 0.2, 0.0},
		{0.2, 0.0, 0.1, 0.9, 0.1, 0.0, 0.0, 0.1},
	}
	return X, []int{0, 1, 0, 1}
}

func TestClassifier_TrainIsIdempotentUnderFixedSeed(t *testing.T) {
	X, y := toyDataset()

	a, err := New(smallConfig(), nil, quietLogger()).Train(context.Background(), X, y)
	require.NoError(t, err)
	b, err := New(smallConfig(), nil, quietLogger()).Train(context.Background(), X, y)
	require.NoError(t, err)

	assert.Equal(t, a.Params, b.Params)
	assert.Equal(t, a.FinalCost, b.FinalCost)
	assert.Equal(t, a.InitialCost, b.InitialCost)
}

func TestClassifier_TrainRecordsModel(t *testing.T) {
	X, y := toyDataset()
	clf := New(smallConfig(), nil, quietLogger())
	assert.Equal(t, StateUninitialized, clf.State())

	var progress []Progress
	clf.OnProgress(func(p Progress) { progress = append(progress, p) })

	model, err := clf.Train(context.Background(), X, y)
	require.NoError(t, err)

	assert.Equal(t, StateTrained, clf.State())
	assert.Same(t, model, clf.Model())
	assert.Equal(t, Layout{NFeatures: 8, NClasses: 2, LatentQubits: 2, LabelQubits: 1}, model.Layout)
	assert.Len(t, model.Params, 1*3*2)
	assert.NotEmpty(t, progress)
	assert.LessOrEqual(t, model.Iterations, smallConfig().MaxIterations)
	for _, v := range model.Params {
		assert.False(t, math.IsNaN(v))
	}
}

func TestClassifier_EndToEndReducesCost(t *testing.T) {
	// One sample of class 2 over 8 features: latent 1, label 2.
	cfg := DefaultConfig()
	cfg.Reps = 1
	cfg.Shots = 2048
	cfg.LabelQubits = 2
	cfg.MaxIterations = 60
	cfg.Seed = 3

	x := []float64{0.05, 0.02, 0.01, 0.03, 0.9, 0.1, 0.02, 0.01}
	model, err := New(cfg, nil, quietLogger()).Train(context.Background(), [][]float64{x}, []int{2})
	require.NoError(t, err)

	assert.Equal(t, 3, model.Layout.NClasses)
	assert.Equal(t, 1, model.Layout.LatentQubits)
	assert.Equal(t, 2, model.Layout.LabelQubits)
	assert.Less(t, model.FinalCost, model.InitialCost)
}

func TestClassifier_TrainErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("layout", func(t *testing.T) {
		clf := New(smallConfig(), nil, quietLogger())
		_, err := clf.Train(ctx, [][]float64{{1, 0, 0, 0}}, []int{3})
		assert.True(t, errors.Is(err, ErrInvalidLayout))
		assert.Equal(t, StateUninitialized, clf.State())
	})

	t.Run("dimension", func(t *testing.T) {
		X := [][]float64{{1, 0, 0, 0, 0, 0, 0, 0}, {1, 0, 0, 0}}
		_, err := New(smallConfig(), nil, quietLogger()).Train(ctx, X, []int{0, 1})
		assert.True(t, errors.Is(err, ErrDimension))
	})

	t.Run("label count", func(t *testing.T) {
		_, err := New(smallConfig(), nil, quietLogger()).Train(ctx, [][]float64{{1, 0}}, nil)
		assert.True(t, errors.Is(err, ErrDimension))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := New(smallConfig(), nil, quietLogger()).Train(ctx, nil, nil)
		assert.True(t, errors.Is(err, ErrEmptyDataset))
	})

	t.Run("negative label", func(t *testing.T) {
		X, _ := toyDataset()
		_, err := New(smallConfig(), nil, quietLogger()).Train(ctx, X, []int{0, -1, 0, 1})
		assert.True(t, errors.Is(err, ErrInvalidLabel))
	})

	t.Run("unsupported ansatz", func(t *testing.T) {
		cfg := smallConfig()
		cfg.Ansatz = circuits.AnsatzVariant(1)
		X, y := toyDataset()
		_, err := New(cfg, nil, quietLogger()).Train(ctx, X, y)
		assert.True(t, errors.Is(err, circuits.ErrUnsupportedAnsatz))
	})

	t.Run("unsupported optimizer", func(t *testing.T) {
		cfg := smallConfig()
		cfg.Optimizer = "COBYLA"
		X, y := toyDataset()
		_, err := New(cfg, nil, quietLogger()).Train(ctx, X, y)
		assert.True(t, errors.Is(err, ErrUnsupportedOptimizer))
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		X, y := toyDataset()
		clf := New(smallConfig(), nil, quietLogger())
		_, err := clf.Train(cctx, X, y)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, clf.Model())
	})
}

func TestClassifier_PredictBeforeTrain(t *testing.T) {
	clf := New(smallConfig(), nil, quietLogger())
	_, err := clf.Predict(context.Background(), [][]float64{{1, 0}})
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = clf.PredictProba(context.Background(), [][]float64{{1, 0}})
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestClassifier_PredictAfterTrain(t *testing.T) {
	X, y := toyDataset()
	clf := New(smallConfig(), nil, quietLogger())
	_, err := clf.Train(context.Background(), X, y)
	require.NoError(t, err)

	pred, err := clf.Predict(context.Background(), X)
	require.NoError(t, err)
	assert.Len(t, pred, len(X))

	proba, err := clf.PredictProba(context.Background(), X)
	require.NoError(t, err)
	for _, row := range proba {
		assert.Len(t, row, 2)
		assert.InDelta(t, 1.0, row[0]+row[1], 1e-9)
	}
}

type stubExecutor struct {
	counts simulator.Counts
}

func (s stubExecutor) Run(context.Context, *circuit.Bound, int) (simulator.Counts, error) {
	return s.counts, nil
}

func TestClassifier_UsesInjectedBackend(t *testing.T) {
	clf := New(smallConfig(), stubExecutor{counts: simulator.Counts{"0": 128}}, quietLogger())
	X, y := toyDataset()
	model, err := clf.Train(context.Background(), X, y)
	require.NoError(t, err)
	assert.Zero(t, model.InitialCost)
	assert.Zero(t, model.FinalCost)
}
