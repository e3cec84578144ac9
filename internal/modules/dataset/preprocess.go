package dataset

import (
	"fmt"
	"math/bits"

	"gonum.org/v1/gonum/floats"
)

// FilterClasses keeps the rows whose label is in classes and renumbers
// labels by their position in classes, so classes {0,2,4,6} become 0..3.
// It returns the mapping from original to new labels.
func FilterClasses(ds *Dataset, classes []int) (*Dataset, map[int]int, error) {
	classMap := make(map[int]int, len(classes))
	for i, c := range classes {
		if _, dup := classMap[c]; dup {
			return nil, nil, fmt.Errorf("class %d listed twice", c)
		}
		classMap[c] = i
	}

	out := &Dataset{}
	for i, y := range ds.Y {
		mapped, ok := classMap[y]
		if !ok {
			continue
		}
		out.X = append(out.X, append([]float64(nil), ds.X[i]...))
		out.Y = append(out.Y, mapped)
	}
	if out.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: no rows with classes %v", ErrEmpty, classes)
	}
	return out, classMap, nil
}

// NormalizeRowMax divides every row by its largest value. Rows whose maximum
// is zero are left unchanged.
func NormalizeRowMax(ds *Dataset) *Dataset {
	out := &Dataset{X: make([][]float64, ds.Len()), Y: append([]int(nil), ds.Y...)}
	for i, row := range ds.X {
		scaled := append([]float64(nil), row...)
		if len(row) > 0 {
			if m := floats.Max(row); m != 0 {
				floats.Scale(1/m, scaled)
			}
		}
		out.X[i] = scaled
	}
	return out
}

// PadToPowerOfTwo appends zero features until the row length is a power of
// two.
func PadToPowerOfTwo(ds *Dataset) *Dataset {
	n := ds.NFeatures()
	target := NextPowerOfTwo(n)
	out := &Dataset{X: make([][]float64, ds.Len()), Y: append([]int(nil), ds.Y...)}
	for i, row := range ds.X {
		padded := make([]float64, target)
		copy(padded, row)
		out.X[i] = padded
	}
	return out
}

// NextPowerOfTwo returns the smallest power of two >= n, and 1 for n <= 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
