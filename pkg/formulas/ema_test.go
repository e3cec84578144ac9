package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateEMA(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		period   int
		expected *float64
	}{
		{name: "empty", values: nil, period: 3, expected: nil},
		{name: "constant series", values: []float64{0.4, 0.4, 0.4, 0.4, 0.4}, period: 3, expected: ptr(0.4)},
		{name: "fewer values than period falls back to mean", values: []float64{1, 2, 3}, period: 10, expected: ptr(2)},
		{name: "linear ramp", values: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, period: 3, expected: ptr(9)},
		{name: "period one is the last value", values: []float64{5, 1}, period: 1, expected: ptr(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateEMA(tt.values, tt.period)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 1e-9)
		})
	}
}

func TestStats(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 0.0, StdDev([]float64{3}))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 0.5, RelativeImprovement(0.4, 0.2), 1e-12)
	assert.Equal(t, 0.0, RelativeImprovement(0, 0.2))
}

func ptr(v float64) *float64 { return &v }
