package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nxt3d/smart-credentials/internal/credential"
	"github.com/nxt3d/smart-credentials/internal/platform/middleware"
	"github.com/nxt3d/smart-credentials/pkg/domain"
	dErrors "github.com/nxt3d/smart-credentials/pkg/domain-errors"
	"github.com/nxt3d/smart-credentials/pkg/platform/httputil"
	"github.com/nxt3d/smart-credentials/pkg/requestcontext"
)

type createInstanceRequest struct {
	Registry string `json:"registry"`
	Name     string `json:"name"`
	Salt     string `json:"salt"`
}

type instanceResponse struct {
	Address  string `json:"address"`
	Owner    string `json:"owner"`
	Registry string `json:"registry"`
	State    string `json:"state"`
}

// handleCreate creates a new instance. The caller becomes the owner. A salt
// requests deterministic addressing; without one the address is fresh.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creator := requestcontext.Actor(ctx)
	if creator.IsNull() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing "+middleware.ActorHeader+" header"))
		return
	}

	var req createInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var (
		instance *credential.Instance
		err      error
	)
	if req.Salt != "" {
		instance, err = h.factory.CreateDeterministic(ctx, creator, domain.Address(req.Registry), req.Name, req.Salt)
	} else {
		instance, err = h.factory.Create(ctx, creator, domain.Address(req.Registry), req.Name)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "instance creation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, instanceResponse{
		Address:  instance.Address().String(),
		Owner:    instance.Owner().String(),
		Registry: instance.RegistryAddress().String(),
		State:    instance.State().String(),
	})
}

// handleList lists created instance addresses, optionally filtered by
// ?creator=.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var addrs []domain.Address
	if creator := r.URL.Query().Get("creator"); creator != "" {
		addrs = h.factory.ListByCreator(domain.Address(creator))
	} else {
		addrs = h.factory.ListAll()
	}

	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"instances": out,
		"count":     len(out),
	})
}

// handlePredictAddress computes the address a deterministic creation with
// ?salt= would produce. Read-only.
func (h *Handler) handlePredictAddress(w http.ResponseWriter, r *http.Request) {
	salt := r.URL.Query().Get("salt")
	if salt == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing salt parameter"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"address": h.factory.PredictAddress(salt).String(),
	})
}

func (h *Handler) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, instanceResponse{
		Address:  instance.Address().String(),
		Owner:    instance.Owner().String(),
		Registry: instance.RegistryAddress().String(),
		State:    instance.State().String(),
	})
}

func (h *Handler) handleCapability(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.instance(w, r)
	if !ok {
		return
	}
	capability := credential.Capability(chi.URLParam(r, "capability"))
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{
		"supported": instance.Supports(capability),
	})
}

// instance resolves the {address} path parameter to a tracked instance,
// writing the error response itself on failure.
func (h *Handler) instance(w http.ResponseWriter, r *http.Request) (*credential.Instance, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	instance, err := h.factory.Instance(addr)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return instance, true
}

// actor pulls the caller address out of the request context, writing the
// error response itself when the header was absent.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	actor := requestcontext.Actor(r.Context())
	if actor.IsNull() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing "+middleware.ActorHeader+" header"))
		return domain.NullAddress, false
	}
	return actor, true
}
