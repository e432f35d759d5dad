package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/creator-sales-engine/internal/audit"
	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

type auditLister interface {
	ListEvents(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
}

// AuditHandler serves the draft audit trail.
type AuditHandler struct {
	store  auditLister
	logger *logging.Logger
	now    func() time.Time
}

func NewAuditHandler(store auditLister, logger *logging.Logger) *AuditHandler {
	if store == nil {
		panic("handlers: audit store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditHandler{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (h *AuditHandler) WithClock(now func() time.Time) *AuditHandler {
	if now != nil {
		h.now = now
	}
	return h
}

type auditResponse struct {
	CreatorID string        `json:"creator_id"`
	Events    []audit.Event `json:"events"`
}

// List handles GET /v1/drafts/audit?fan_id=&since=&limit=. since defaults to
// seven days ago.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	q := r.URL.Query()
	filter := audit.Filter{
		CreatorID: creator,
		FanID:     strings.TrimSpace(q.Get("fan_id")),
		Since:     h.now().Add(-7 * 24 * time.Hour),
	}
	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			jsonError(w, "since must be RFC3339", http.StatusBadRequest)
			return
		}
		filter.Since = since.UTC()
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	events, err := h.store.ListEvents(r.Context(), filter)
	if err != nil {
		h.logger.Error("audit listing failed", "creator_id", creator, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, auditResponse{CreatorID: creator, Events: events})
}
