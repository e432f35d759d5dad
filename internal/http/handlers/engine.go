package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/creator-sales-engine/internal/assistant"
	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
	"github.com/wolfman30/creator-sales-engine/internal/fans"
	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/observability/metrics"
	"github.com/wolfman30/creator-sales-engine/internal/priority"
	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

// EngineHandler exposes the sales engine over JSON.
type EngineHandler struct {
	svc      *assistant.Service
	gatherer prometheus.Gatherer
	logger   *logging.Logger
	now      func() time.Time
}

// NewEngineHandler creates the engine handler.
func NewEngineHandler(svc *assistant.Service, logger *logging.Logger) *EngineHandler {
	if svc == nil {
		panic("handlers: assistant service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EngineHandler{
		svc:      svc,
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithGatherer sets where the QA snapshot reads draft scores from.
func (h *EngineHandler) WithGatherer(g prometheus.Gatherer) *EngineHandler {
	if g != nil {
		h.gatherer = g
	}
	return h
}

func (h *EngineHandler) WithClock(now func() time.Time) *EngineHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// serviceError maps assistant and repository errors onto HTTP statuses.
func (h *EngineHandler) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, fans.ErrFanNotFound):
		jsonError(w, "fan not found", http.StatusNotFound)
	case errors.Is(err, assistant.ErrMissingCreatorID), errors.Is(err, fans.ErrMissingCreatorID):
		jsonError(w, "missing creator", http.StatusUnauthorized)
	case errors.Is(err, fans.ErrInvalidStage):
		jsonError(w, "invalid stage", http.StatusBadRequest)
	default:
		creator, _ := creatorID(r)
		h.logger.Error("engine request failed", "op", op, "creator_id", creator, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

type nextStageRequest struct {
	Stage     string `json:"stage"`
	ActionKey string `json:"action_key"`
}

type nextStageResponse struct {
	Stage   *funnel.Stage `json:"stage"`
	Changed bool          `json:"changed"`
	Rule    string        `json:"rule,omitempty"`
}

// NextStage evaluates the auto-advance rules without touching stored fans.
// POST /v1/stage/next
func (h *EngineHandler) NextStage(w http.ResponseWriter, r *http.Request) {
	var req nextStageRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	current, ok := funnel.ParseStage(req.Stage)
	if !ok {
		jsonError(w, "unknown stage", http.StatusBadRequest)
		return
	}
	resp := nextStageResponse{}
	if next, ok := funnel.NextStage(current, req.ActionKey); ok {
		resp.Stage = &next
		resp.Changed = true
		resp.Rule = funnel.MatchingRule(current, req.ActionKey)
	}
	writeJSON(w, http.StatusOK, resp)
}

type stageActionRequest struct {
	ActionKey string `json:"action_key"`
}

// ApplyStageAction applies an action key to a stored fan.
// POST /v1/fans/{fanID}/stage/actions
func (h *EngineHandler) ApplyStageAction(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	fanID := strings.TrimSpace(chi.URLParam(r, "fanID"))
	var req stageActionRequest
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.ActionKey) == "" {
		jsonError(w, "action_key required", http.StatusBadRequest)
		return
	}
	change, err := h.svc.AdvanceStage(r.Context(), creator, fanID, req.ActionKey)
	if err != nil {
		h.serviceError(w, r, "advance_stage", err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

type priorityRequest struct {
	Now            string         `json:"now"`
	LastIncomingAt string         `json:"last_incoming_at"`
	LastOutgoingAt string         `json:"last_outgoing_at"`
	Spent7d        float64        `json:"spent_7d"`
	Spent30d       float64        `json:"spent_30d"`
	Stage          string         `json:"stage"`
	Objective      string         `json:"objective"`
	Intensity      string         `json:"intensity"`
	Flags          priority.Flags `json:"flags"`
}

func (req priorityRequest) input(fallbackNow time.Time) priority.Input {
	in := priority.Input{
		Now:            fallbackNow,
		LastIncomingAt: parseTimestamp(req.LastIncomingAt),
		LastOutgoingAt: parseTimestamp(req.LastOutgoingAt),
		Spent7d:        req.Spent7d,
		Spent30d:       req.Spent30d,
		Intensity:      funnel.IntensityOrDefault(req.Intensity),
		Flags:          req.Flags,
	}
	if t := parseTimestamp(req.Now); t != nil {
		in.Now = *t
	}
	if stage, ok := funnel.ParseStage(req.Stage); ok {
		in.Stage = stage
	}
	if obj, ok := funnel.NormalizeObjective(req.Objective); ok {
		in.Objective = obj
	}
	return in
}

// Priority scores a single fan snapshot.
// POST /v1/priority
func (h *EngineHandler) Priority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, priority.Breakdown(req.input(h.now())))
}

type inboxResponse struct {
	CreatorID string                 `json:"creator_id"`
	Fans      []assistant.InboxEntry `json:"fans"`
}

// Inbox ranks the creator's fans.
// GET /v1/inbox?plans=1&limit=50
func (h *EngineHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	opts := assistant.InboxOptions{}
	q := r.URL.Query()
	if raw := q.Get("plans"); raw != "" {
		withPlans, err := strconv.ParseBool(raw)
		if err != nil {
			jsonError(w, "plans must be a boolean", http.StatusBadRequest)
			return
		}
		opts.WithPlans = withPlans
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		opts.Limit = limit
	}

	entries, err := h.svc.Inbox(r.Context(), creator, opts)
	if err != nil {
		h.serviceError(w, r, "inbox", err)
		return
	}
	writeJSON(w, http.StatusOK, inboxResponse{CreatorID: creator, Fans: entries})
}

// Ladder returns a fan's extras ladder.
// GET /v1/fans/{fanID}/ladder
func (h *EngineHandler) Ladder(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	status, err := h.svc.Ladder(r.Context(), creator, chi.URLParam(r, "fanID"))
	if err != nil {
		h.serviceError(w, r, "ladder", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Plan returns a fan's chatter plan.
// GET /v1/fans/{fanID}/plan
func (h *EngineHandler) Plan(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	view, err := h.svc.Plan(r.Context(), creator, chi.URLParam(r, "fanID"))
	if err != nil {
		h.serviceError(w, r, "plan", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type composeRequest struct {
	Usage          string         `json:"usage"`
	FanName        string         `json:"fan_name"`
	LastFanMessage string         `json:"last_fan_message"`
	Stage          string         `json:"stage"`
	Objective      string         `json:"objective"`
	Intensity      string         `json:"intensity"`
	OfferTitle     string         `json:"offer_title"`
	OfferTier      string         `json:"offer_tier"`
	Variant        int            `json:"variant"`
	Mode           string         `json:"mode"`
	Pools          drafting.Pools `json:"pools"`
}

func (req composeRequest) options() drafting.Options {
	opts := drafting.Options{
		FanName:        strings.TrimSpace(req.FanName),
		LastFanMessage: req.LastFanMessage,
		Intensity:      funnel.IntensityOrDefault(req.Intensity),
		OfferTitle:     strings.TrimSpace(req.OfferTitle),
		OfferTier:      strings.TrimSpace(req.OfferTier),
		Variant:        req.Variant,
		Mode:           drafting.ParseMode(req.Mode),
		Pools:          req.Pools,
	}
	if stage, ok := funnel.ParseStage(req.Stage); ok {
		opts.Stage = stage
	}
	if obj, ok := funnel.NormalizeObjective(req.Objective); ok {
		opts.Objective = obj
	}
	return opts
}

// ComposeDraft builds a draft from caller-supplied options.
// POST /v1/drafts
func (h *EngineHandler) ComposeDraft(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	var req composeRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	var usage chatterplan.Usage
	if req.Usage != "" {
		parsed, ok := chatterplan.ParseUsage(req.Usage)
		if !ok {
			jsonError(w, "unknown usage", http.StatusBadRequest)
			return
		}
		usage = parsed
	}
	out, err := h.svc.ComposeDraft(r.Context(), creator, usage, req.options())
	if err != nil {
		h.serviceError(w, r, "compose_draft", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type fanDraftRequest struct {
	Variant    int    `json:"variant"`
	Mode       string `json:"mode"`
	Usage      string `json:"usage"`
	OfferTitle string `json:"offer_title"`
	OfferTier  string `json:"offer_tier"`
	Intensity  string `json:"intensity"`
}

// DraftForFan builds a draft for a stored fan from its plan.
// POST /v1/fans/{fanID}/drafts
func (h *EngineHandler) DraftForFan(w http.ResponseWriter, r *http.Request) {
	creator, ok := creatorID(r)
	if !ok {
		jsonError(w, "missing creator", http.StatusUnauthorized)
		return
	}
	var body fanDraftRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &body); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	req := assistant.DraftRequest{
		Variant:    body.Variant,
		Mode:       drafting.ParseMode(body.Mode),
		OfferTitle: strings.TrimSpace(body.OfferTitle),
		OfferTier:  strings.TrimSpace(body.OfferTier),
	}
	if body.Usage != "" {
		usage, ok := chatterplan.ParseUsage(body.Usage)
		if !ok {
			jsonError(w, "unknown usage", http.StatusBadRequest)
			return
		}
		req.Usage = usage
	}
	if intensity, ok := funnel.ParseIntensity(body.Intensity); ok {
		req.Intensity = intensity
	}

	out, err := h.svc.DraftForFan(r.Context(), creator, chi.URLParam(r, "fanID"), req)
	if err != nil {
		h.serviceError(w, r, "draft_for_fan", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type textRequest struct {
	Text string `json:"text"`
}

// ScoreDraft grades a draft text.
// POST /v1/drafts/score
func (h *EngineHandler) ScoreDraft(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, drafting.ScoreDraft(req.Text))
}

// CheckDraft runs the pre-send hard rules on a draft text.
// POST /v1/drafts/check
func (h *EngineHandler) CheckDraft(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, drafting.PassesHardRules(req.Text))
}

// QASnapshot summarizes draft QA scores served since process start.
// GET /v1/engine/qa
func (h *EngineHandler) QASnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.SnapshotQA(h.gatherer))
}
