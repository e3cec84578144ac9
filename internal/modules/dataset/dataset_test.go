package dataset

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSV(t *testing.T) {
	t.Run("with header", func(t *testing.T) {
		ds, err := LoadCSV(strings.NewReader("f0,f1,label\n0.5,1.5,2\n1,2,0\n"))
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{0.5, 1.5}, {1, 2}}, ds.X)
		assert.Equal(t, []int{2, 0}, ds.Y)
		assert.Equal(t, []int{0, 2}, ds.Classes())
	})

	t.Run("without header", func(t *testing.T) {
		ds, err := LoadCSV(strings.NewReader("1, 2, 3, 1\n4, 5, 6, 0\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, ds.Len())
		assert.Equal(t, 3, ds.NFeatures())
	})

	t.Run("ragged", func(t *testing.T) {
		_, err := LoadCSV(strings.NewReader("1,2,0\n1,2,3,0\n"))
		assert.True(t, errors.Is(err, ErrRagged))
	})

	t.Run("bad label", func(t *testing.T) {
		_, err := LoadCSV(strings.NewReader("1,2,x\n"))
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := LoadCSV(strings.NewReader("f0,label\n"))
		assert.True(t, errors.Is(err, ErrEmpty))
	})
}

func TestWriteCSV_RoundTripsThroughLoad(t *testing.T) {
	ds := &Dataset{X: [][]float64{{0.25, -1}, {3, 4e-9}}, Y: []int{1, 0}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	assert.True(t, strings.HasPrefix(buf.String(), "f0,f1,label\n"))

	back, err := LoadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, ds, back)
}

func TestFilterClasses_RemapsLabels(t *testing.T) {
	ds := &Dataset{
		X: [][]float64{{0}, {1}, {2}, {3}, {4}, {5}, {6}},
		Y: []int{0, 1, 2, 3, 4, 5, 6},
	}
	out, classMap, err := FilterClasses(ds, []int{0, 2, 4, 6})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3}, out.Y)
	assert.Equal(t, [][]float64{{0}, {2}, {4}, {6}}, out.X)
	assert.Equal(t, map[int]int{0: 0, 2: 1, 4: 2, 6: 3}, classMap)

	_, _, err = FilterClasses(ds, []int{9})
	assert.True(t, errors.Is(err, ErrEmpty))
	_, _, err = FilterClasses(ds, []int{1, 1})
	assert.Error(t, err)
}

func TestNormalizeRowMax(t *testing.T) {
	ds := &Dataset{X: [][]float64{{2, 4, 8}, {0, 0, 0}}, Y: []int{0, 1}}
	out := NormalizeRowMax(ds)
	assert.Equal(t, []float64{0.25, 0.5, 1}, out.X[0])
	assert.Equal(t, []float64{0, 0, 0}, out.X[1])
	assert.Equal(t, []float64{2, 4, 8}, ds.X[0], "input must not be modified")
}

func TestPadToPowerOfTwo(t *testing.T) {
	ds := &Dataset{X: [][]float64{{1, 2, 3, 4, 5}}, Y: []int{0}}
	out := PadToPowerOfTwo(ds)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 0, 0, 0}, out.X[0])

	assert.Equal(t, 1, NextPowerOfTwo(0))
	assert.Equal(t, 1, NextPowerOfTwo(1))
	assert.Equal(t, 8, NextPowerOfTwo(8))
	assert.Equal(t, 64, NextPowerOfTwo(33))
}

func balanced(perClass, classes int) *Dataset {
	ds := &Dataset{}
	for c := 0; c < classes; c++ {
		for i := 0; i < perClass; i++ {
			ds.X = append(ds.X, []float64{float64(c*1000 + i)})
			ds.Y = append(ds.Y, c)
		}
	}
	return ds
}

func TestStratifiedSplit_PreservesProportions(t *testing.T) {
	ds := balanced(40, 4)
	train, test, err := StratifiedSplit(ds, 75, 50, 42)
	require.NoError(t, err)

	assert.Equal(t, 75, train.Len())
	assert.Equal(t, 50, test.Len())

	trainCounts := Summarize(train).ClassCounts
	testCounts := Summarize(test).ClassCounts
	for c := 0; c < 4; c++ {
		assert.InDelta(t, 75.0/4, float64(trainCounts[c]), 1, "train class %d", c)
		assert.InDelta(t, 50.0/4, float64(testCounts[c]), 1, "test class %d", c)
	}

	seen := make(map[float64]bool)
	for _, row := range append(train.X, test.X...) {
		assert.False(t, seen[row[0]], "sample %v drawn twice", row[0])
		seen[row[0]] = true
	}
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	ds := balanced(10, 3)
	a1, b1, err := StratifiedSplit(ds, 12, 0, 7)
	require.NoError(t, err)
	a2, b2, err := StratifiedSplit(ds, 12, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assert.Equal(t, 18, b1.Len())

	a3, _, err := StratifiedSplit(ds, 12, 0, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a1.X, a3.X)
}

func TestStratifiedSplit_Errors(t *testing.T) {
	ds := balanced(5, 2)
	_, _, err := StratifiedSplit(ds, 8, 5, 1)
	assert.True(t, errors.Is(err, ErrSplitSize))
	_, _, err = StratifiedSplit(ds, 10, 0, 1)
	assert.True(t, errors.Is(err, ErrSplitSize))
	_, _, err = StratifiedSplit(&Dataset{}, 1, 1, 1)
	assert.True(t, errors.Is(err, ErrEmpty))
}

func TestMakeClassification(t *testing.T) {
	ds, err := MakeClassification(150, 8, 2, 1.5, 42)
	require.NoError(t, err)
	require.NoError(t, ds.Validate())
	assert.Equal(t, 150, ds.Len())
	assert.Equal(t, 8, ds.NFeatures())
	assert.Equal(t, map[int]int{0: 75, 1: 75}, Summarize(ds).ClassCounts)

	again, err := MakeClassification(150, 8, 2, 1.5, 42)
	require.NoError(t, err)
	assert.Equal(t, ds, again)

	_, err = MakeClassification(1, 8, 2, 1, 1)
	assert.Error(t, err)
}

func TestPCA_ProjectsOntoLeadingComponent(t *testing.T) {
	// Points on the line y = 2x: one component carries all the variance.
	ds := &Dataset{Y: []int{0, 0, 1, 1, 1}}
	for _, x := range []float64{-2, -1, 0, 1, 2} {
		ds.X = append(ds.X, []float64{x, 2 * x})
	}
	pca, err := FitPCA(ds, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, pca.Components())

	out, err := pca.Transform(ds)
	require.NoError(t, err)
	require.Equal(t, 1, out.NFeatures())
	assert.Equal(t, ds.Y, out.Y)

	sign := 1.0
	if out.X[4][0] < 0 {
		sign = -1
	}
	for i, x := range []float64{-2, -1, 0, 1, 2} {
		assert.InDelta(t, x*2.2360679775, sign*out.X[i][0], 1e-9)
	}

	_, err = FitPCA(ds, 3)
	assert.Error(t, err)
	_, err = pca.Transform(&Dataset{X: [][]float64{{1, 2, 3}}, Y: []int{0}})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	ds := &Dataset{X: [][]float64{{1, 10}, {3, 10}}, Y: []int{0, 1}}
	s := Summarize(ds)
	assert.Equal(t, 2, s.Samples)
	assert.Equal(t, 2, s.Features)
	assert.InDeltaSlice(t, []float64{2, 10}, s.FeatureMean, 1e-12)
	assert.InDelta(t, 1.41421356237, s.FeatureStd[0], 1e-9)
	assert.Zero(t, s.FeatureStd[1])
}
