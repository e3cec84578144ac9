package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/qae/internal/modules/circuits"
	"github.com/aristath/qae/internal/quantum/circuit"
	"github.com/aristath/qae/internal/quantum/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroModel has all ansatz angles at zero, so the ansatz only permutes basis
// states: e_4 (qubit 2 set) ends on label bits "10".
func zeroModel() *Model {
	cfg := DefaultConfig()
	cfg.Reps = 1
	cfg.Shots = 256
	return &Model{
		Layout: Layout{NFeatures: 8, NClasses: 4, LatentQubits: 1, LabelQubits: 2},
		Config: cfg,
		Params: make([]float64, 1*3*2),
	}
}

func e4() []float64 {
	return []float64{0, 0, 0, 0, 1, 0, 0, 0}
}

func TestModel_PredictDecodesLabelRegister(t *testing.T) {
	m := zeroModel()
	backend := simulator.New(1)

	pred, err := m.Predict(context.Background(), backend, [][]float64{e4()})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, pred)

	proba, err := m.PredictProba(context.Background(), backend, [][]float64{e4()})
	require.NoError(t, err)
	require.Len(t, proba, 1)
	require.Len(t, proba[0], 4)
	assert.InDelta(t, 0.0, proba[0][0], 1e-12)
	assert.InDelta(t, 0.0, proba[0][1], 1e-12)
	assert.InDelta(t, 1.0, proba[0][2], 1e-12)
	assert.InDelta(t, 0.0, proba[0][3], 1e-12)

	exact, err := m.PredictProbaExact(context.Background(), backend, [][]float64{e4()})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, exact[0][2], 1e-12)
}

func TestModel_PredictProbaRowsSumToOne(t *testing.T) {
	m := zeroModel()
	for i := range m.Params {
		m.Params[i] = 0.3 * float64(i+1)
	}
	X := [][]float64{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{8, 7, 6, 5, 4, 3, 2, 1},
		{0.1, 0, 0.4, 0, 0.2, 0.3, 0, 0.9},
	}
	proba, err := m.PredictProba(context.Background(), simulator.New(9), X)
	require.NoError(t, err)
	require.Len(t, proba, len(X))
	for _, row := range proba {
		assert.Len(t, row, 4)
		sum := 0.0
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestModel_PredictProbaDropsOutOfRangeClasses(t *testing.T) {
	m := zeroModel()
	m.Layout.NClasses = 3
	backend := stubExecutor{counts: simulator.Counts{"00": 64, "01": 64, "11": 128}}

	proba, err := m.PredictProba(context.Background(), backend, [][]float64{e4()})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0}, proba[0], 1e-12)

	backend = stubExecutor{counts: simulator.Counts{"11": 256}}
	proba, err = m.PredictProba(context.Background(), backend, [][]float64{e4()})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, proba[0], 1e-12)
}

func TestModel_PredictTieGoesToLowestValue(t *testing.T) {
	m := zeroModel()
	backend := stubExecutor{counts: simulator.Counts{"11": 100, "01": 100, "10": 56}}

	pred, err := m.Predict(context.Background(), backend, [][]float64{e4(), e4()})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, pred)
}

func TestModel_Errors(t *testing.T) {
	ctx := context.Background()
	backend := simulator.New(1)

	var nilModel *Model
	_, err := nilModel.Predict(ctx, backend, [][]float64{e4()})
	assert.ErrorIs(t, err, ErrNotTrained)

	m := zeroModel()
	m.Params = m.Params[:3]
	_, err = m.PredictProba(ctx, backend, [][]float64{e4()})
	assert.ErrorIs(t, err, ErrNotTrained)

	_, err = zeroModel().Predict(ctx, backend, [][]float64{e4(), {1, 0}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimension))
	assert.Contains(t, err.Error(), "sample 1")
}

func TestModel_PredictionCircuit(t *testing.T) {
	bound, err := zeroModel().PredictionCircuit(e4())
	require.NoError(t, err)
	assert.Equal(t, 3, bound.NumQubits)
	assert.Equal(t, 2, bound.CountOps()[circuit.Measure])
	for _, op := range bound.Ops {
		if op.Kind.IsRotation() {
			assert.False(t, op.Angle.Symbolic())
		}
	}
	assert.Contains(t, bound.QASM(), "measure label[1] -> clabel[1];")
}

func TestArgmaxCount(t *testing.T) {
	assert.Equal(t, 1, argmaxCount(map[int]int{2: 5, 1: 5, 0: 3}))
	assert.Equal(t, 3, argmaxCount(map[int]int{3: 9, 0: 1}))
}

func TestModel_UsesCircularAnsatzByDefault(t *testing.T) {
	assert.Equal(t, circuits.Circular, zeroModel().Config.Ansatz)
}
