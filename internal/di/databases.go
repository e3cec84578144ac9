// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/qae/internal/config"
	"github.com/aristath/qae/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the model store and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// qae.db - trained models and training job history
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "qae",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model store: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
	}
	container.DB = db

	log.Info().Str("path", db.Path()).Msg("Model store initialized and schema applied")

	return container, nil
}
