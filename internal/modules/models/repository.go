// Package models persists trained classifier models.
package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when no model has the requested ID.
var ErrNotFound = errors.New("model not found")

// StoredModel is a trained model together with its storage metadata.
type StoredModel struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Model     *classifier.Model `json:"model"`
}

// Summary describes a stored model without its parameters.
type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	NFeatures   int       `json:"n_features"`
	NClasses    int       `json:"n_classes"`
	NParameters int       `json:"n_parameters"`
	InitialCost float64   `json:"initial_cost"`
	FinalCost   float64   `json:"final_cost"`
	Iterations  int       `json:"iterations"`
	TrainedAt   time.Time `json:"trained_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository handles database operations for trained models.
// Database: qae.db (models table)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new model repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "model_repository").Logger(),
	}
}

// Save inserts or replaces a model. An empty ID is assigned a new uuid and
// a zero CreatedAt is set to now.
func (r *Repository) Save(m *StoredModel) error {
	if m == nil || m.Model == nil {
		return fmt.Errorf("cannot save empty model")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	layout, err := msgpack.Marshal(&m.Model.Layout)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}
	cfg, err := msgpack.Marshal(&m.Model.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	params, err := msgpack.Marshal(m.Model.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}
	history, err := msgpack.Marshal(m.Model.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO models (
			id, name, n_features, n_classes, n_parameters,
			layout, config, params, history,
			initial_cost, final_cost, iterations, evaluations,
			trained_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, m.Name, m.Model.Layout.NFeatures, m.Model.Layout.NClasses, len(m.Model.Params),
		layout, cfg, params, history,
		m.Model.InitialCost, m.Model.FinalCost, m.Model.Iterations, m.Model.Evaluations,
		m.Model.TrainedAt.UnixNano(), m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save model %s: %w", m.ID, err)
	}

	r.log.Debug().
		Str("model_id", m.ID).
		Int("parameters", len(m.Model.Params)).
		Msg("Saved model")

	return nil
}

// Get loads a model by ID.
func (r *Repository) Get(id string) (*StoredModel, error) {
	var (
		sm                           StoredModel
		layout, cfg, params, history []byte
		trainedAt, createdAt         int64
		model                        classifier.Model
	)

	err := r.db.QueryRow(`
		SELECT id, name, layout, config, params, history,
		       initial_cost, final_cost, iterations, evaluations,
		       trained_at, created_at
		FROM models
		WHERE id = ?
	`, id).Scan(
		&sm.ID, &sm.Name, &layout, &cfg, &params, &history,
		&model.InitialCost, &model.FinalCost, &model.Iterations, &model.Evaluations,
		&trainedAt, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model %s: %w", id, err)
	}

	if err := msgpack.Unmarshal(layout, &model.Layout); err != nil {
		return nil, fmt.Errorf("failed to decode layout of model %s: %w", id, err)
	}
	if err := msgpack.Unmarshal(cfg, &model.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config of model %s: %w", id, err)
	}
	if err := msgpack.Unmarshal(params, &model.Params); err != nil {
		return nil, fmt.Errorf("failed to decode parameters of model %s: %w", id, err)
	}
	if len(history) > 0 {
		if err := msgpack.Unmarshal(history, &model.History); err != nil {
			return nil, fmt.Errorf("failed to decode history of model %s: %w", id, err)
		}
	}

	model.TrainedAt = time.Unix(0, trainedAt).UTC()
	sm.CreatedAt = time.Unix(0, createdAt).UTC()
	sm.Model = &model

	return &sm, nil
}

// List returns summaries of all models, newest first.
func (r *Repository) List() ([]Summary, error) {
	rows, err := r.db.Query(`
		SELECT id, name, n_features, n_classes, n_parameters,
		       initial_cost, final_cost, iterations, trained_at, created_at
		FROM models
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var (
			s                    Summary
			trainedAt, createdAt int64
		)
		if err := rows.Scan(
			&s.ID, &s.Name, &s.NFeatures, &s.NClasses, &s.NParameters,
			&s.InitialCost, &s.FinalCost, &s.Iterations, &trainedAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		s.TrainedAt = time.Unix(0, trainedAt).UTC()
		s.CreatedAt = time.Unix(0, createdAt).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model rows: %w", err)
	}

	return summaries, nil
}

// Delete removes a model by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete model %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.log.Debug().Str("model_id", id).Msg("Deleted model")
	return nil
}
