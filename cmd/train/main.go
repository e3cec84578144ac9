// Package main trains a classifier offline from environment configuration,
// prints its evaluation report and stores the model in the model store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aristath/qae/internal/config"
	"github.com/aristath/qae/internal/database"
	"github.com/aristath/qae/internal/modules/experiment"
	"github.com/aristath/qae/internal/modules/models"
	"github.com/aristath/qae/pkg/formulas"
	"github.com/aristath/qae/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := experiment.Run(ctx, experiment.Options{
		DatasetPath:   cfg.Dataset.Path,
		Classes:       cfg.Dataset.Classes,
		TrainSize:     cfg.Dataset.TrainSize,
		TestSize:      cfg.Dataset.TestSize,
		PCAComponents: cfg.Dataset.PCAComponents,
		Classifier:    cfg.ClassifierConfig(),
		PlotPath:      filepath.Join(cfg.DataDir, cfg.Dataset.ModelName+"-confusion.png"),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Experiment failed")
	}

	fmt.Fprintf(os.Stdout, "Training split (%d samples)\n%s\n", result.TrainSummary.Samples, result.TrainReport.Classification)
	fmt.Fprintf(os.Stdout, "Test split (%d samples)\n%s\n", result.TestSummary.Samples, result.TestReport.Classification)
	if result.TestReport.LogLoss != nil {
		fmt.Fprintf(os.Stdout, "log loss: %.4f\n", *result.TestReport.LogLoss)
	}
	fmt.Fprintf(os.Stdout, "cost: %.4f -> %.4f over %d iterations\n",
		result.Model.InitialCost, result.Model.FinalCost, result.Model.Iterations)
	fmt.Fprintf(os.Stdout, "improvement: %.1f%%\n",
		100*formulas.RelativeImprovement(result.Model.InitialCost, result.Model.FinalCost))
	if tail := lastN(result.Model.History, 10); len(tail) > 1 {
		fmt.Fprintf(os.Stdout, "last %d costs: mean %.4f, std %.4f\n",
			len(tail), formulas.Mean(tail), formulas.StdDev(tail))
	}

	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "qae",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open model store")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate model store")
	}

	service := models.NewService(models.NewRepository(db.Conn(), log), log)
	stored, err := service.Store(cfg.Dataset.ModelName, result.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to store model")
	}

	log.Info().
		Str("model_id", stored.ID).
		Str("plot", result.PlotPath).
		Msg("Model stored")
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
