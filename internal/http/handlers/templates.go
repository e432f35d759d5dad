package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
	"github.com/wolfman30/creator-sales-engine/internal/templates"
	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

type templateOverrides interface {
	Resolve(ctx context.Context, creatorID string, usage chatterplan.Usage) (templates.Resolved, error)
	SaveOverride(ctx context.Context, creatorID string, usage chatterplan.Usage, pools drafting.Pools) error
	ClearOverride(ctx context.Context, creatorID string, usage chatterplan.Usage) error
}

// TemplatesHandler lets a creator inspect and replace the pools behind each
// draft usage.
type TemplatesHandler struct {
	source templateOverrides
	logger *logging.Logger
}

func NewTemplatesHandler(source templateOverrides, logger *logging.Logger) *TemplatesHandler {
	if source == nil {
		panic("handlers: template source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TemplatesHandler{source: source, logger: logger}
}

func (h *TemplatesHandler) templateError(w http.ResponseWriter, creator string, err error) {
	switch {
	case errors.Is(err, templates.ErrUnknownUsage):
		jsonError(w, "unknown usage", http.StatusBadRequest)
	case errors.Is(err, templates.ErrEmptyPools):
		jsonError(w, "pools must contain at least one block", http.StatusBadRequest)
	case errors.Is(err, templates.ErrOverridesUnavailable):
		jsonError(w, "template overrides are not configured", http.StatusServiceUnavailable)
	default:
		h.logger.Error("template request failed", "creator_id", creator, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// Get handles GET /v1/templates/{usage}.
func (h *TemplatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	resolved, err := h.source.Resolve(r.Context(), creator, chatterplan.Usage(chi.URLParam(r, "usage")))
	if err != nil {
		h.templateError(w, creator, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

// Put handles PUT /v1/templates/{usage} with a pools body.
func (h *TemplatesHandler) Put(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	var pools drafting.Pools
	if err := decodeBody(w, r, &pools); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	usage := chatterplan.Usage(chi.URLParam(r, "usage"))
	if err := h.source.SaveOverride(r.Context(), creator, usage, pools); err != nil {
		h.templateError(w, creator, err)
		return
	}
	writeJSON(w, http.StatusOK, templates.Resolved{Usage: usage, Override: true, Pools: pools})
}

// Delete handles DELETE /v1/templates/{usage}.
func (h *TemplatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	if err := h.source.ClearOverride(r.Context(), creator, chatterplan.Usage(chi.URLParam(r, "usage"))); err != nil {
		h.templateError(w, creator, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
