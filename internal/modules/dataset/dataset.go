// Package dataset loads, preprocesses and splits labelled feature matrices
// into the shape the classifier consumes: power-of-two feature counts and
// labels numbered from zero.
package dataset

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmpty is returned when an operation needs at least one sample.
	ErrEmpty = errors.New("dataset is empty")
	// ErrRagged is returned when rows have different lengths.
	ErrRagged = errors.New("rows have different lengths")
	// ErrSplitSize is returned when a split asks for more samples than exist.
	ErrSplitSize = errors.New("invalid split size")
)

// Dataset is a feature matrix with one integer label per row.
type Dataset struct {
	X [][]float64
	Y []int
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.X)
}

// NFeatures returns the row length, or 0 for an empty dataset.
func (d *Dataset) NFeatures() int {
	if len(d.X) == 0 {
		return 0
	}
	return len(d.X[0])
}

// Classes returns the distinct labels in ascending order.
func (d *Dataset) Classes() []int {
	seen := make(map[int]bool)
	for _, y := range d.Y {
		seen[y] = true
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Validate checks that labels match rows and every row has the same length.
func (d *Dataset) Validate() error {
	if len(d.X) == 0 {
		return ErrEmpty
	}
	if len(d.X) != len(d.Y) {
		return fmt.Errorf("%d rows but %d labels", len(d.X), len(d.Y))
	}
	n := len(d.X[0])
	for i, row := range d.X {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d features, row 0 has %d", ErrRagged, i, len(row), n)
		}
	}
	return nil
}

// Subset returns the rows at idx, copied.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{X: make([][]float64, len(idx)), Y: make([]int, len(idx))}
	for i, j := range idx {
		out.X[i] = append([]float64(nil), d.X[j]...)
		out.Y[i] = d.Y[j]
	}
	return out
}
