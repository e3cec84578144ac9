// Package handlers provides HTTP handlers for training and querying classifiers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/qae/internal/events"
	"github.com/aristath/qae/internal/modules/circuits"
	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/aristath/qae/internal/modules/models"
	"github.com/aristath/qae/internal/queue"
	"github.com/aristath/qae/internal/quantum/simulator"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies; training sets travel inline.
const maxBodyBytes = 32 << 20

// TrainingQueue accepts and reports training jobs.
type TrainingQueue interface {
	Submit(req queue.Request) (string, error)
	Get(id string) (queue.Job, error)
	List() []queue.Job
}

// ModelService loads and manages stored models.
type ModelService interface {
	Load(id string) (*classifier.Model, error)
	Get(id string) (*models.StoredModel, error)
	List() ([]models.Summary, error)
	Delete(id string) error
}

// Handler handles classifier HTTP requests
type Handler struct {
	jobs     TrainingQueue
	models   ModelService
	bus      *events.Bus
	defaults classifier.Config
	log      zerolog.Logger
}

// NewHandler creates a new classifier handler. bus may be nil.
func NewHandler(jobs TrainingQueue, models ModelService, bus *events.Bus, defaults classifier.Config, log zerolog.Logger) *Handler {
	return &Handler{
		jobs:     jobs,
		models:   models,
		bus:      bus,
		defaults: defaults,
		log:      log.With().Str("handler", "classifier").Logger(),
	}
}

// ConfigOverrides replaces individual training defaults.
type ConfigOverrides struct {
	Ansatz        *int    `json:"ansatz,omitempty"`
	Reps          *int    `json:"reps,omitempty"`
	LabelQubits   *int    `json:"label_qubits,omitempty"`
	Shots         *int    `json:"shots,omitempty"`
	Optimizer     *string `json:"optimizer,omitempty"`
	MaxIterations *int    `json:"max_iterations,omitempty"`
	Seed          *uint64 `json:"seed,omitempty"`
}

func (o *ConfigOverrides) apply(cfg classifier.Config) classifier.Config {
	if o == nil {
		return cfg
	}
	if o.Ansatz != nil {
		cfg.Ansatz = circuits.AnsatzVariant(*o.Ansatz)
	}
	if o.Reps != nil {
		cfg.Reps = *o.Reps
	}
	if o.LabelQubits != nil {
		cfg.LabelQubits = *o.LabelQubits
	}
	if o.Shots != nil {
		cfg.Shots = *o.Shots
	}
	if o.Optimizer != nil {
		cfg.Optimizer = classifier.OptimizerMethod(*o.Optimizer)
	}
	if o.MaxIterations != nil {
		cfg.MaxIterations = *o.MaxIterations
	}
	if o.Seed != nil {
		cfg.Seed = *o.Seed
	}
	return cfg
}

// TrainRequest represents a request to train a new model
type TrainRequest struct {
	Name     string           `json:"name"`
	Features [][]float64      `json:"features"`
	Labels   []int            `json:"labels"`
	Config   *ConfigOverrides `json:"config,omitempty"`
}

// PredictRequest represents a prediction request
type PredictRequest struct {
	Features [][]float64 `json:"features"`
	// Exact uses the exact outcome distribution instead of sampled shots
	// (predict-proba only).
	Exact bool `json:"exact,omitempty"`
}

// CircuitRequest represents a request for one sample's prediction circuit
type CircuitRequest struct {
	Features []float64 `json:"features"`
}

// HandleTrain handles POST /api/classifier/train
func (h *Handler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if !h.decode(w, r, &req) {
		return
	}

	cfg := req.Config.apply(h.defaults)
	jobID, err := h.jobs.Submit(queue.Request{
		Name:   req.Name,
		X:      req.Features,
		Y:      req.Labels,
		Config: cfg,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeData(w, http.StatusAccepted, map[string]interface{}{
		"job_id": jobID,
		"config": cfg,
	})
}

// HandleListJobs handles GET /api/classifier/jobs
func (h *Handler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, http.StatusOK, h.jobs.List())
}

// HandleGetJob handles GET /api/classifier/jobs/{id}
func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, job)
}

// HandleListModels handles GET /api/classifier/models
func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.models.List()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, summaries)
}

// HandleGetModel handles GET /api/classifier/models/{id}
func (h *Handler) HandleGetModel(w http.ResponseWriter, r *http.Request) {
	sm, err := h.models.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, sm)
}

// HandleDeleteModel handles DELETE /api/classifier/models/{id}
func (h *Handler) HandleDeleteModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.models.Delete(id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	if h.bus != nil {
		h.bus.Emit("classifier", &events.ModelDeletedData{ModelID: id})
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePredict handles POST /api/classifier/models/{id}/predict
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	model, req, ok := h.loadForPrediction(w, r)
	if !ok {
		return
	}

	predictions, err := model.Predict(r.Context(), simulator.New(model.Config.Seed), req.Features)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"predictions": predictions,
		"n_classes":   model.Layout.NClasses,
	})
}

// HandlePredictProba handles POST /api/classifier/models/{id}/predict-proba
func (h *Handler) HandlePredictProba(w http.ResponseWriter, r *http.Request) {
	model, req, ok := h.loadForPrediction(w, r)
	if !ok {
		return
	}

	backend := simulator.New(model.Config.Seed)
	var (
		probabilities [][]float64
		err           error
	)
	if req.Exact {
		probabilities, err = model.PredictProbaExact(r.Context(), backend, req.Features)
	} else {
		probabilities, err = model.PredictProba(r.Context(), backend, req.Features)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"probabilities": probabilities,
		"exact":         req.Exact,
	})
}

// HandleCircuit handles POST /api/classifier/models/{id}/circuit
func (h *Handler) HandleCircuit(w http.ResponseWriter, r *http.Request) {
	model, err := h.models.Load(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	var req CircuitRequest
	if !h.decode(w, r, &req) {
		return
	}

	bound, err := model.PredictionCircuit(req.Features)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	ops := make(map[string]int)
	for kind, n := range bound.CountOps() {
		ops[kind.String()] = n
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"qasm":       bound.QASM(),
		"num_qubits": bound.NumQubits,
		"num_clbits": bound.NumClbits,
		"ops":        ops,
	})
}

func (h *Handler) loadForPrediction(w http.ResponseWriter, r *http.Request) (*classifier.Model, PredictRequest, bool) {
	var req PredictRequest
	model, err := h.models.Load(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return nil, req, false
	}
	if !h.decode(w, r, &req) {
		return nil, req, false
	}
	if len(req.Features) == 0 {
		h.writeError(w, http.StatusBadRequest, "features must not be empty")
		return nil, req, false
	}
	return model, req, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Debug().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, queue.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrStopped),
		errors.Is(err, classifier.ErrTrainingInProgress):
		return http.StatusConflict
	case errors.Is(err, queue.ErrInvalidRequest),
		errors.Is(err, classifier.ErrDimension),
		errors.Is(err, classifier.ErrZeroVector),
		errors.Is(err, classifier.ErrInvalidLabel),
		errors.Is(err, classifier.ErrInvalidLayout),
		errors.Is(err, classifier.ErrEmptyDataset),
		errors.Is(err, classifier.ErrUnsupportedOptimizer),
		errors.Is(err, circuits.ErrUnsupportedAnsatz):
		return http.StatusBadRequest
	case errors.Is(err, classifier.ErrNotTrained):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
