// Package experiment runs the offline train-and-evaluate workflow: load or
// generate a dataset, preprocess it, train a classifier and score it on a
// held-out split.
package experiment

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/aristath/qae/internal/modules/dataset"
	"github.com/aristath/qae/internal/modules/evaluation"
	"github.com/aristath/qae/internal/quantum/simulator"
	"github.com/rs/zerolog"
)

const (
	// syntheticFeatures is the width of the generated dataset.
	syntheticFeatures = 8
	// syntheticSeparation is the distance of the cluster centres from the origin per axis.
	syntheticSeparation = 2.0
	// logEvery is how often training progress is logged, in iterations.
	logEvery = 10
)

// Options configure one experiment run.
type Options struct {
	DatasetPath   string // CSV file, empty generates a synthetic dataset
	Classes       []int  // classes to keep, empty keeps all
	TrainSize     int
	TestSize      int // 0 uses every sample not in the training split
	PCAComponents int // 0 disables PCA
	Classifier    classifier.Config
	PlotPath      string // confusion matrix image, empty skips plotting
}

// Result holds everything produced by a run.
type Result struct {
	Model        *classifier.Model
	TrainSummary dataset.Summary
	TestSummary  dataset.Summary
	TrainReport  *evaluation.Report
	TestReport   *evaluation.Report
	PlotPath     string
	Duration     time.Duration
}

// Run executes the workflow described by opts.
func Run(ctx context.Context, opts Options, log zerolog.Logger) (*Result, error) {
	log = log.With().Str("component", "experiment").Logger()
	start := time.Now()

	ds, err := load(opts, log)
	if err != nil {
		return nil, err
	}
	train, test, err := Prepare(ds, opts, log)
	if err != nil {
		return nil, err
	}

	result := &Result{
		TrainSummary: dataset.Summarize(train),
		TestSummary:  dataset.Summarize(test),
	}
	log.Info().
		Int("train", train.Len()).
		Int("test", test.Len()).
		Int("features", train.NFeatures()).
		Msg("Dataset prepared")

	clf := classifier.New(opts.Classifier, simulator.New(opts.Classifier.Seed), log)
	clf.OnProgress(func(p classifier.Progress) {
		if p.Iteration%logEvery == 0 {
			log.Info().
				Int("iteration", p.Iteration).
				Int("evaluations", p.Evaluations).
				Float64("cost", p.Cost).
				Msg("Training progress")
		}
	})

	model, err := clf.Train(ctx, train.X, train.Y)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	result.Model = model

	if result.TrainReport, err = score(ctx, model, train); err != nil {
		return nil, fmt.Errorf("score training split: %w", err)
	}
	if result.TestReport, err = score(ctx, model, test); err != nil {
		return nil, fmt.Errorf("score test split: %w", err)
	}

	if opts.PlotPath != "" {
		labels := make([]string, len(result.TestReport.Labels))
		for i, l := range result.TestReport.Labels {
			labels[i] = strconv.Itoa(l)
		}
		if err := evaluation.PlotConfusionMatrix(result.TestReport.ConfusionDense(), labels, opts.PlotPath); err != nil {
			return nil, err
		}
		result.PlotPath = opts.PlotPath
	}

	result.Duration = time.Since(start)
	log.Info().
		Float64("train_accuracy", result.TrainReport.Accuracy).
		Float64("test_accuracy", result.TestReport.Accuracy).
		Dur("duration", result.Duration).
		Msg("Experiment completed")

	return result, nil
}

func load(opts Options, log zerolog.Logger) (*dataset.Dataset, error) {
	if opts.DatasetPath != "" {
		ds, err := dataset.LoadCSVFile(filepath.Clean(opts.DatasetPath))
		if err != nil {
			return nil, fmt.Errorf("load dataset: %w", err)
		}
		log.Info().Str("path", opts.DatasetPath).Int("samples", ds.Len()).Msg("Dataset loaded")
		return ds, nil
	}

	classes := len(opts.Classes)
	if classes == 0 {
		classes = 2
	}
	n := opts.TrainSize + opts.TestSize
	if opts.TestSize == 0 {
		n = 2 * opts.TrainSize
	}
	ds, err := dataset.MakeClassification(n, syntheticFeatures, classes, syntheticSeparation, opts.Classifier.Seed)
	if err != nil {
		return nil, err
	}
	if len(opts.Classes) > 0 {
		// Generated labels are 0..k-1; relabel them so the class filter keeps them all.
		for i, y := range ds.Y {
			ds.Y[i] = opts.Classes[y]
		}
	}
	log.Info().Int("samples", n).Int("classes", classes).Msg("Synthetic dataset generated")
	return ds, nil
}

// Prepare filters, projects, normalizes and splits ds. PCA, when enabled,
// is fitted on the training split only.
func Prepare(ds *dataset.Dataset, opts Options, log zerolog.Logger) (train, test *dataset.Dataset, err error) {
	if len(opts.Classes) > 0 {
		ds, _, err = dataset.FilterClasses(ds, opts.Classes)
		if err != nil {
			return nil, nil, err
		}
	}

	train, test, err = dataset.StratifiedSplit(ds, opts.TrainSize, opts.TestSize, opts.Classifier.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("split: %w", err)
	}

	if opts.PCAComponents > 0 {
		pca, err := dataset.FitPCA(train, opts.PCAComponents)
		if err != nil {
			return nil, nil, err
		}
		if train, err = pca.Transform(train); err != nil {
			return nil, nil, err
		}
		if test, err = pca.Transform(test); err != nil {
			return nil, nil, err
		}
		log.Info().
			Int("components", pca.Components()).
			Floats64("explained_variance", pca.ExplainedVariance()).
			Msg("PCA applied")
	}

	train = dataset.PadToPowerOfTwo(dataset.NormalizeRowMax(train))
	test = dataset.PadToPowerOfTwo(dataset.NormalizeRowMax(test))
	return train, test, nil
}

func score(ctx context.Context, model *classifier.Model, ds *dataset.Dataset) (*evaluation.Report, error) {
	backend := simulator.New(model.Config.Seed)
	proba, err := model.PredictProba(ctx, backend, ds.X)
	if err != nil {
		return nil, err
	}
	pred := make([]int, len(proba))
	for i, row := range proba {
		pred[i] = argmax(row)
	}
	return evaluation.Evaluate(ds.Y, pred, proba)
}

// argmax returns the first index of the largest value.
func argmax(row []float64) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
