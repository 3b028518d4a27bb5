package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/nxt3d/smart-credentials/internal/platform/middleware"
	"github.com/nxt3d/smart-credentials/pkg/domain"
	dErrors "github.com/nxt3d/smart-credentials/pkg/domain-errors"
	"github.com/nxt3d/smart-credentials/pkg/platform/httputil"
)

// handleSetRegistry swaps the instance's bound registry. Owner-only.
func (h *Handler) handleSetRegistry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req struct {
		Registry string `json:"registry"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := instance.SetRegistry(ctx, actor, domain.Address(req.Registry)); err != nil {
		h.logger.WarnContext(ctx, "registry swap rejected",
			"request_id", middleware.GetRequestID(ctx),
			"instance", instance.Address().String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTransferOwnership hands the instance to a new owner. Owner-only.
func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req struct {
		NewOwner string `json:"new_owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := instance.TransferOwnership(ctx, actor, domain.Address(req.NewOwner)); err != nil {
		h.logger.WarnContext(ctx, "ownership transfer rejected",
			"request_id", middleware.GetRequestID(ctx),
			"instance", instance.Address().String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRenounceOwnership sets the owner to the null address, permanently.
// Owner-only.
func (h *Handler) handleRenounceOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	if err := instance.RenounceOwnership(ctx, actor); err != nil {
		h.logger.WarnContext(ctx, "ownership renounce rejected",
			"request_id", middleware.GetRequestID(ctx),
			"instance", instance.Address().String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
