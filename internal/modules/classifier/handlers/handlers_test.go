package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/aristath/qae/internal/events"
	"github.com/aristath/qae/internal/modules/circuits"
	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/aristath/qae/internal/modules/models"
	"github.com/aristath/qae/internal/queue"
	testingpkg "github.com/aristath/qae/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQueue struct {
	submitted []queue.Request
	jobs      map[string]queue.Job
	err       error
}

func (q *stubQueue) Submit(req queue.Request) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.submitted = append(q.submitted, req)
	return fmt.Sprintf("job-%d", len(q.submitted)), nil
}

func (q *stubQueue) Get(id string) (queue.Job, error) {
	job, ok := q.jobs[id]
	if !ok {
		return queue.Job{}, fmt.Errorf("%w: %s", queue.ErrJobNotFound, id)
	}
	return job, nil
}

func (q *stubQueue) List() []queue.Job {
	out := make([]queue.Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type stubModels struct {
	stored map[string]*models.StoredModel
}

func (s *stubModels) Load(id string) (*classifier.Model, error) {
	sm, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sm.Model, nil
}

func (s *stubModels) Get(id string) (*models.StoredModel, error) {
	sm, ok := s.stored[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return sm, nil
}

func (s *stubModels) List() ([]models.Summary, error) {
	out := make([]models.Summary, 0, len(s.stored))
	for _, sm := range s.stored {
		out = append(out, models.Summary{ID: sm.ID, Name: sm.Name, NFeatures: sm.Model.Layout.NFeatures})
	}
	return out, nil
}

func (s *stubModels) Delete(id string) error {
	if _, ok := s.stored[id]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	delete(s.stored, id)
	return nil
}

type fixture struct {
	router chi.Router
	queue  *stubQueue
	models *stubModels
	bus    *events.Bus
}

func newFixture(t *testing.T) *fixture {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	f := &fixture{
		queue: &stubQueue{jobs: map[string]queue.Job{
			"job-a": {ID: "job-a", Name: "digits", Status: queue.StatusRunning, Samples: 10},
		}},
		models: &stubModels{stored: map[string]*models.StoredModel{
			"m1": {ID: "m1", Name: "digits", Model: testingpkg.NewModelFixture(t, 4)},
		}},
		bus: events.NewBus(log),
	}

	defaults := classifier.DefaultConfig()
	h := NewHandler(f.queue, f.models, f.bus, defaults, log)
	f.router = chi.NewRouter()
	f.router.Route("/api", h.RegisterRoutes)
	return f
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data     json.RawMessage        `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Metadata, "timestamp")
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

func TestHandleTrain(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/classifier/train", map[string]interface{}{
		"name":     "digits",
		"features": [][]float64{{1, 0, 0, 0}, {0, 0, 1, 0}},
		"labels":   []int{0, 1},
		"config":   map[string]interface{}{"reps": 2, "optimizer": "cma-es"},
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		JobID  string            `json:"job_id"`
		Config classifier.Config `json:"config"`
	}
	decodeData(t, w, &resp)
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, 2, resp.Config.Reps)

	require.Len(t, f.queue.submitted, 1)
	got := f.queue.submitted[0]
	assert.Equal(t, "digits", got.Name)
	assert.Equal(t, classifier.CMAES, got.Config.Optimizer)
	assert.Equal(t, 2, got.Config.Reps)
	// Untouched fields keep the defaults.
	assert.Equal(t, classifier.DefaultConfig().Shots, got.Config.Shots)
}

func TestHandleTrain_Errors(t *testing.T) {
	tests := []struct {
		name     string
		queueErr error
		body     interface{}
		want     int
	}{
		{"malformed body", nil, "{not json", http.StatusBadRequest},
		{"invalid request", fmt.Errorf("%w: empty", queue.ErrInvalidRequest), map[string]interface{}{}, http.StatusBadRequest},
		{"queue full", queue.ErrQueueFull, map[string]interface{}{}, http.StatusConflict},
		{"stopped", queue.ErrStopped, map[string]interface{}{}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.queue.err = tt.queueErr

			w := f.do(http.MethodPost, "/api/classifier/train", tt.body)

			assert.Equal(t, tt.want, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestHandleJobs(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/classifier/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs []queue.Job
	decodeData(t, w, &jobs)
	require.Len(t, jobs, 1)
	assert.Equal(t, queue.StatusRunning, jobs[0].Status)

	w = f.do(http.MethodGet, "/api/classifier/jobs/job-a", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/classifier/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleModels(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/classifier/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []models.Summary
	decodeData(t, w, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, 4, summaries[0].NFeatures)

	w = f.do(http.MethodGet, "/api/classifier/models/m1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/classifier/models/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteModel_EmitsEvent(t *testing.T) {
	f := newFixture(t)

	var deleted []string
	f.bus.Subscribe(events.ModelDeleted, func(e *events.Event) {
		deleted = append(deleted, e.Data.(*events.ModelDeletedData).ModelID)
	})

	w := f.do(http.MethodDelete, "/api/classifier/models/m1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"m1"}, deleted)

	w = f.do(http.MethodDelete, "/api/classifier/models/m1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlePredict(t *testing.T) {
	f := newFixture(t)
	features := [][]float64{{1, 0, 0, 0}, {0, 0, 1, 0}, {0.5, 0.5, 0.5, 0.5}}

	w := f.do(http.MethodPost, "/api/classifier/models/m1/predict", PredictRequest{Features: features})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Predictions []int `json:"predictions"`
		NClasses    int   `json:"n_classes"`
	}
	decodeData(t, w, &resp)
	require.Len(t, resp.Predictions, len(features))
	for _, p := range resp.Predictions {
		assert.True(t, p == 0 || p == 1)
	}

	// The per-request backend is seeded from the model, so repeats agree.
	again := f.do(http.MethodPost, "/api/classifier/models/m1/predict", PredictRequest{Features: features})
	var resp2 struct {
		Predictions []int `json:"predictions"`
	}
	decodeData(t, again, &resp2)
	assert.Equal(t, resp.Predictions, resp2.Predictions)
}

func TestHandlePredict_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"unknown model", "/api/classifier/models/missing/predict", PredictRequest{Features: [][]float64{{1, 0, 0, 0}}}, http.StatusNotFound},
		{"empty features", "/api/classifier/models/m1/predict", PredictRequest{}, http.StatusBadRequest},
		{"wrong dimension", "/api/classifier/models/m1/predict", PredictRequest{Features: [][]float64{{1, 0}}}, http.StatusBadRequest},
		{"zero vector", "/api/classifier/models/m1/predict", PredictRequest{Features: [][]float64{{0, 0, 0, 0}}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestHandlePredictProba(t *testing.T) {
	for _, exact := range []bool{false, true} {
		t.Run(fmt.Sprintf("exact=%v", exact), func(t *testing.T) {
			f := newFixture(t)
			w := f.do(http.MethodPost, "/api/classifier/models/m1/predict-proba", PredictRequest{
				Features: [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}},
				Exact:    exact,
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp struct {
				Probabilities [][]float64 `json:"probabilities"`
				Exact         bool        `json:"exact"`
			}
			decodeData(t, w, &resp)
			assert.Equal(t, exact, resp.Exact)
			require.Len(t, resp.Probabilities, 2)
			for _, row := range resp.Probabilities {
				require.Len(t, row, 2)
				assert.InDelta(t, 1.0, row[0]+row[1], 1e-9)
			}
		})
	}
}

func TestHandleCircuit(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/classifier/models/m1/circuit", CircuitRequest{Features: []float64{1, 0, 0, 0}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		QASM      string         `json:"qasm"`
		NumQubits int            `json:"num_qubits"`
		NumClbits int            `json:"num_clbits"`
		Ops       map[string]int `json:"ops"`
	}
	decodeData(t, w, &resp)
	assert.Contains(t, resp.QASM, "OPENQASM 2.0;")
	assert.Equal(t, 2, resp.NumQubits)
	assert.Equal(t, 1, resp.NumClbits)
	assert.Equal(t, 1, resp.Ops["measure"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("wrap: %w", models.ErrNotFound)))
	assert.Equal(t, http.StatusConflict, statusFor(classifier.ErrTrainingInProgress))
	assert.Equal(t, http.StatusBadRequest, statusFor(circuits.ErrUnsupportedAnsatz))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(classifier.ErrNotTrained))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
