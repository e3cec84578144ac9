package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA is a linear projection onto the leading principal components of a
// training set.
type PCA struct {
	mean       []float64
	components *mat.Dense
	variances  []float64
}

// FitPCA computes the first k principal components of ds.
func FitPCA(ds *Dataset, k int) (*PCA, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	n, d := ds.Len(), ds.NFeatures()
	if k <= 0 || k > d || k > n {
		return nil, fmt.Errorf("pca: cannot keep %d components of %d samples with %d features", k, n, d)
	}

	data := mat.NewDense(n, d, nil)
	for i, row := range ds.X {
		data.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, fmt.Errorf("pca: decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	mean := make([]float64, d)
	for j := 0; j < d; j++ {
		mean[j] = stat.Mean(mat.Col(nil, j, data), nil)
	}
	components := mat.DenseCopyOf(vecs.Slice(0, d, 0, k))
	return &PCA{mean: mean, components: components, variances: pc.VarsTo(nil)[:k]}, nil
}

// Components returns the number of kept components.
func (p *PCA) Components() int {
	_, k := p.components.Dims()
	return k
}

// ExplainedVariance returns the score variance of each kept component.
func (p *PCA) ExplainedVariance() []float64 {
	return append([]float64(nil), p.variances...)
}

// Transform centres ds with the training mean and projects it.
func (p *PCA) Transform(ds *Dataset) (*Dataset, error) {
	if ds.NFeatures() != len(p.mean) {
		return nil, fmt.Errorf("pca: fitted on %d features, got %d", len(p.mean), ds.NFeatures())
	}
	n := ds.Len()
	centred := mat.NewDense(n, len(p.mean), nil)
	for i, row := range ds.X {
		for j, v := range row {
			centred.Set(i, j, v-p.mean[j])
		}
	}
	var scores mat.Dense
	scores.Mul(centred, p.components)

	out := &Dataset{X: make([][]float64, n), Y: append([]int(nil), ds.Y...)}
	for i := 0; i < n; i++ {
		out.X[i] = mat.Row(nil, i, &scores)
	}
	return out, nil
}
