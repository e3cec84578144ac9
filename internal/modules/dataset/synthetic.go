package dataset

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// MakeClassification generates n samples of Gaussian clusters, one per
// class. Each class centre sits on a random vertex of the hypercube with
// side 2*sep; samples scatter around it with unit variance. Classes are
// balanced and the rows are shuffled.
func MakeClassification(n, features, classes int, sep float64, seed uint64) (*Dataset, error) {
	if n <= 0 || features <= 0 || classes <= 0 {
		return nil, fmt.Errorf("make classification: n=%d features=%d classes=%d must be positive", n, features, classes)
	}
	if classes > n {
		return nil, fmt.Errorf("make classification: %d classes need at least as many samples, got %d", classes, n)
	}

	src := rand.NewPCG(seed, seed^0x2545f4914f6cdd1d)
	rng := rand.New(src)
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	centres := make([][]float64, classes)
	for c := range centres {
		centres[c] = make([]float64, features)
		for j := range centres[c] {
			if rng.IntN(2) == 0 {
				centres[c][j] = -sep
			} else {
				centres[c][j] = sep
			}
		}
	}

	ds := &Dataset{X: make([][]float64, n), Y: make([]int, n)}
	for i := 0; i < n; i++ {
		c := i % classes
		row := make([]float64, features)
		for j := range row {
			row[j] = centres[c][j] + noise.Rand()
		}
		ds.X[i] = row
		ds.Y[i] = c
	}
	rng.Shuffle(n, func(i, j int) {
		ds.X[i], ds.X[j] = ds.X[j], ds.X[i]
		ds.Y[i], ds.Y[j] = ds.Y[j], ds.Y[i]
	})
	return ds, nil
}
