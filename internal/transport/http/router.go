// Package httptransport is the thin HTTP layer over the factory and its
// instances. Handlers decode, delegate, and translate coded errors; no
// business logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nxt3d/smart-credentials/internal/factory"
	"github.com/nxt3d/smart-credentials/internal/platform/middleware"
)

// Handler serves the credential HTTP surface.
type Handler struct {
	logger  *slog.Logger
	factory *factory.Factory
}

// NewHandler creates a Handler over the given factory.
func NewHandler(f *factory.Factory, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, factory: f}
}

// NewRouter wires all public endpoints behind the standard middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Actor)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/instances", func(api chi.Router) {
		api.Post("/", h.handleCreate)
		api.Get("/", h.handleList)
		api.Get("/address", h.handlePredictAddress)

		api.Route("/{address}", func(inst chi.Router) {
			inst.Get("/", h.handleGetInstance)
			inst.Get("/capabilities/{capability}", h.handleCapability)

			inst.Put("/agents/{agentID}/metadata/{key}", h.handleSetAgentMetadata)
			inst.Get("/agents/{agentID}/metadata/{key}", h.handleGetAgentMetadata)

			inst.Put("/reviews/{reviewerID}/{reviewedID}", h.handleSubmitReview)
			inst.Get("/reviews/{reviewerID}/{reviewedID}", h.handleGetReview)

			inst.Put("/metadata/{key}", h.handleSetInstanceMetadata)
			inst.Get("/metadata/{key}", h.handleGetInstanceMetadata)

			inst.Post("/registry", h.handleSetRegistry)
			inst.Post("/ownership/transfer", h.handleTransferOwnership)
			inst.Post("/ownership/renounce", h.handleRenounceOwnership)
		})
	})

	return r
}
