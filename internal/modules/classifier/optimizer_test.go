package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadratic(x []float64) (float64, error) {
	sum := 0.0
	for i, v := range x {
		d := v - float64(i+1)
		sum += d * d
	}
	return sum, nil
}

func TestGonumOptimizer_NelderMeadConverges(t *testing.T) {
	var iterations []Progress
	opt, err := NewOptimizer(NelderMead, 1, func(p Progress) { iterations = append(iterations, p) })
	require.NoError(t, err)

	res, err := opt.Minimize(context.Background(), quadratic, []float64{0, 0, 0}, 400)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.X[0], 1e-2)
	assert.InDelta(t, 2.0, res.X[1], 1e-2)
	assert.InDelta(t, 3.0, res.X[2], 1e-2)
	assert.LessOrEqual(t, res.Iterations, 400)
	assert.NotEmpty(t, iterations)
	assert.Len(t, res.History, len(iterations))
	for i := 1; i < len(res.History); i++ {
		assert.LessOrEqual(t, res.History[i], res.History[i-1], "best cost never increases")
	}
}

func TestGonumOptimizer_CMAESImproves(t *testing.T) {
	opt, err := NewOptimizer(CMAES, 7, nil)
	require.NoError(t, err)

	x0 := []float64{0, 0}
	f0, _ := quadratic(x0)
	res, err := opt.Minimize(context.Background(), quadratic, x0, 100)
	require.NoError(t, err)
	assert.Less(t, res.F, f0)
}

func TestGonumOptimizer_IterationBudget(t *testing.T) {
	opt, err := NewOptimizer(NelderMead, 1, nil)
	require.NoError(t, err)

	res, err := opt.Minimize(context.Background(), quadratic, []float64{0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Iterations)
	assert.Equal(t, "IterationLimit", res.Status)
}

func TestGonumOptimizer_ObjectiveErrorStopsRun(t *testing.T) {
	boom := errors.New("backend down")
	calls := 0
	f := func(x []float64) (float64, error) {
		calls++
		if calls > 3 {
			return 0, boom
		}
		return quadratic(x)
	}
	opt, err := NewOptimizer(NelderMead, 1, nil)
	require.NoError(t, err)

	_, err = opt.Minimize(context.Background(), f, []float64{0, 0}, 100)
	assert.ErrorIs(t, err, boom)
}

func TestGonumOptimizer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opt, err := NewOptimizer(NelderMead, 1, nil)
	require.NoError(t, err)

	_, err = opt.Minimize(ctx, quadratic, []float64{0, 0}, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewOptimizer_Unsupported(t *testing.T) {
	_, err := NewOptimizer("COBYLA", 1, nil)
	assert.True(t, errors.Is(err, ErrUnsupportedOptimizer))
}
