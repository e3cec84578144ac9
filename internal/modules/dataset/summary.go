package dataset

import (
	"gonum.org/v1/gonum/stat"
)

// Summary describes a dataset's class balance and feature distribution.
type Summary struct {
	Samples     int         `json:"samples"`
	Features    int         `json:"features"`
	ClassCounts map[int]int `json:"class_counts"`
	FeatureMean []float64   `json:"feature_mean"`
	FeatureStd  []float64   `json:"feature_std"`
}

// Summarize computes a Summary of ds.
func Summarize(ds *Dataset) Summary {
	s := Summary{
		Samples:     ds.Len(),
		Features:    ds.NFeatures(),
		ClassCounts: make(map[int]int),
		FeatureMean: make([]float64, ds.NFeatures()),
		FeatureStd:  make([]float64, ds.NFeatures()),
	}
	for _, y := range ds.Y {
		s.ClassCounts[y]++
	}
	if ds.Len() == 0 {
		return s
	}
	col := make([]float64, ds.Len())
	for j := 0; j < s.Features; j++ {
		for i, row := range ds.X {
			col[i] = row[j]
		}
		if len(col) > 1 {
			s.FeatureMean[j], s.FeatureStd[j] = stat.MeanStdDev(col, nil)
		} else {
			s.FeatureMean[j] = col[0]
		}
	}
	return s
}
