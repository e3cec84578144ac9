package formulas

import (
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// RelativeImprovement returns (initial - final) / initial, or 0 when initial
// is zero.
func RelativeImprovement(initial, final float64) float64 {
	if initial == 0 {
		return 0
	}
	return (initial - final) / initial
}
