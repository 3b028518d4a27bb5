package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nxt3d/smart-credentials/internal/platform/middleware"
	"github.com/nxt3d/smart-credentials/pkg/domain"
	dErrors "github.com/nxt3d/smart-credentials/pkg/domain-errors"
	"github.com/nxt3d/smart-credentials/pkg/platform/httputil"
)

// valueBody carries an opaque record value. JSON base64-encodes []byte, so
// clients submit and receive values as base64 strings.
type valueBody struct {
	Value []byte `json:"value"`
}

// handleSetAgentMetadata writes one agent metadata entry. The acting address
// must have standing for the agent through the instance's bound registry.
func (h *Handler) handleSetAgentMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	agentID, err := domain.ParseAgentID(chi.URLParam(r, "agentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var body valueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := instance.SetAgentMetadata(ctx, actor, agentID, chi.URLParam(r, "key"), body.Value); err != nil {
		h.logger.WarnContext(ctx, "agent metadata write rejected",
			"request_id", middleware.GetRequestID(ctx),
			"instance", instance.Address().String(),
			"agent_id", agentID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetAgentMetadata reads one agent metadata entry. Reads are public; a
// never-written key yields an empty value.
func (h *Handler) handleGetAgentMetadata(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	agentID, err := domain.ParseAgentID(chi.URLParam(r, "agentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	value, err := instance.GetAgentMetadata(r.Context(), agentID, chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, valueBody{Value: value})
}

// handleSubmitReview writes the review for the ordered (reviewer, reviewed)
// pair. The acting address must have standing for the reviewer.
func (h *Handler) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	reviewerID, err := domain.ParseAgentID(chi.URLParam(r, "reviewerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reviewedID, err := domain.ParseAgentID(chi.URLParam(r, "reviewedID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var body valueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := instance.SubmitReview(ctx, actor, reviewerID, reviewedID, body.Value); err != nil {
		h.logger.WarnContext(ctx, "review rejected",
			"request_id", middleware.GetRequestID(ctx),
			"instance", instance.Address().String(),
			"reviewer_id", reviewerID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetReview(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	reviewerID, err := domain.ParseAgentID(chi.URLParam(r, "reviewerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reviewedID, err := domain.ParseAgentID(chi.URLParam(r, "reviewedID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	value, err := instance.GetReview(r.Context(), reviewerID, reviewedID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, valueBody{Value: value})
}

// handleSetInstanceMetadata writes one instance-scoped metadata entry.
// Owner-only.
func (h *Handler) handleSetInstanceMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var body valueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := instance.SetInstanceMetadata(ctx, actor, chi.URLParam(r, "key"), body.Value); err != nil {
		h.logger.WarnContext(ctx, "instance metadata write rejected",
			"request_id", middleware.GetRequestID(ctx),
			"instance", instance.Address().String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetInstanceMetadata(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	value, err := instance.GetInstanceMetadata(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, valueBody{Value: value})
}
