package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all classifier routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/classifier", func(r chi.Router) {
		r.Post("/train", h.HandleTrain)

		r.Get("/jobs", h.HandleListJobs)
		r.Get("/jobs/{id}", h.HandleGetJob)

		r.Get("/models", h.HandleListModels)
		r.Route("/models/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetModel)
			r.Delete("/", h.HandleDeleteModel)
			r.Post("/predict", h.HandlePredict)
			r.Post("/predict-proba", h.HandlePredictProba)
			r.Post("/circuit", h.HandleCircuit)
		})
	})
}
