package models

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/rs/zerolog"
)

// Service stores trained models and restores them for prediction. Restored
// models are immutable, so they are cached by ID.
type Service struct {
	repo *Repository
	log  zerolog.Logger

	mu    sync.RWMutex
	cache map[string]*classifier.Model
}

// NewService creates a new model service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		log:   log.With().Str("service", "models").Logger(),
		cache: make(map[string]*classifier.Model),
	}
}

// Store persists a freshly trained model under name and returns its record.
func (s *Service) Store(name string, model *classifier.Model) (*StoredModel, error) {
	if model == nil || len(model.Params) == 0 {
		return nil, classifier.ErrNotTrained
	}
	sm := &StoredModel{Name: name, Model: model}
	if err := s.repo.Save(sm); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[sm.ID] = model
	s.mu.Unlock()

	s.log.Info().
		Str("model_id", sm.ID).
		Str("name", name).
		Int("classes", model.Layout.NClasses).
		Float64("final_cost", model.FinalCost).
		Msg("Model stored")

	return sm, nil
}

// Load returns the trained model with the given ID.
func (s *Service) Load(id string) (*classifier.Model, error) {
	s.mu.RLock()
	model, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return model, nil
	}

	sm, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[id] = sm.Model
	s.mu.Unlock()

	return sm.Model, nil
}

// Get returns the full stored record of a model.
func (s *Service) Get(id string) (*StoredModel, error) {
	return s.repo.Get(id)
}

// List returns summaries of all stored models.
func (s *Service) List() ([]Summary, error) {
	return s.repo.List()
}

// Delete removes a model from storage and the cache.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()

	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete model: %w", err)
	}

	s.log.Info().Str("model_id", id).Msg("Model deleted")
	return nil
}
