// Package di provides dependency injection for repository implementations.
package di

import (
	"github.com/aristath/qae/internal/modules/models"
	"github.com/aristath/qae/internal/queue"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.ModelRepo = models.NewRepository(container.DB.Conn(), log)
	container.JobRepo = queue.NewJobRepository(container.DB.Conn())

	log.Info().Msg("Repositories initialized")
}
