// Package assistant runs the sales engine for a creator's fans: it loads fan
// projections, calls the pure decision core and records what it served.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/creator-sales-engine/internal/audit"
	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
	"github.com/wolfman30/creator-sales-engine/internal/events"
	"github.com/wolfman30/creator-sales-engine/internal/fans"
	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/ladder"
	"github.com/wolfman30/creator-sales-engine/internal/observability/metrics"
	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

var tracer = otel.Tracer("creator/assistant")

// ErrMissingCreatorID is returned when an operation has no creator scope.
var ErrMissingCreatorID = errors.New("assistant: creator id is required")

// PoolSource resolves template pools for a creator and usage.
type PoolSource interface {
	Pools(ctx context.Context, creatorID string, usage chatterplan.Usage) drafting.Pools
}

// Service orchestrates the engine for one deployment.
type Service struct {
	fans     fans.Repository
	pools    PoolSource
	audit    audit.Recorder
	events   events.Publisher
	metrics  *metrics.EngineMetrics
	logger   *logging.Logger
	planOpts chatterplan.Options
	location *time.Location
	now      func() time.Time
}

// NewService wires the required collaborators. Audit, events and metrics are
// optional and attached with the With* methods.
func NewService(repo fans.Repository, pools PoolSource, logger *logging.Logger) *Service {
	if repo == nil {
		panic("assistant: fans repository required")
	}
	if pools == nil {
		panic("assistant: template source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		fans:     repo,
		pools:    pools,
		logger:   logger,
		planOpts: chatterplan.DefaultOptions(),
		location: time.UTC,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithAudit(r audit.Recorder) *Service {
	s.audit = r
	return s
}

func (s *Service) WithPublisher(p events.Publisher) *Service {
	s.events = p
	return s
}

func (s *Service) WithMetrics(m *metrics.EngineMetrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithPlanOptions(opts chatterplan.Options) *Service {
	s.planOpts = opts
	return s
}

// WithLocation sets the timezone used when a creator has none configured.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.location = loc
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	return err
}

// fanState is everything the core needs about one fan.
type fanState struct {
	fan       *fans.Fan
	purchases []ladder.Purchase
	catalog   []ladder.CatalogItem
	settings  fans.CreatorSettings
	ladder    ladder.LadderStatus
	session   ladder.SessionToday
	access    chatterplan.AccessSnapshot
	state     chatterplan.AccessState
	lastGrant chatterplan.GrantType
	plan      chatterplan.Plan
}

func (s *Service) load(ctx context.Context, creatorID, fanID string) (*fanState, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	fan, err := s.fans.Get(ctx, creatorID, fanID)
	if err != nil {
		return nil, err
	}
	purchases, err := s.fans.Purchases(ctx, creatorID, fanID)
	if err != nil {
		return nil, err
	}
	grants, err := s.fans.Grants(ctx, creatorID, fanID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.fans.Catalog(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	settings, err := s.fans.Settings(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	st := &fanState{fan: fan, purchases: purchases, catalog: catalog, settings: settings}
	s.derive(st, grants)
	return st, nil
}

func (s *Service) derive(st *fanState, grants []chatterplan.Grant) {
	now := s.now()
	st.ladder = ladder.Status(st.purchases, st.catalog)
	st.session = ladder.ExtrasToday(st.purchases, now, st.settings.Location(s.location))
	st.access, st.state, st.lastGrant = chatterplan.Snapshot(grants, now)
	st.plan = chatterplan.Build(chatterplan.Input{
		Ladder:        st.ladder,
		Session:       st.session,
		TurnMode:      st.settings.TurnMode,
		Access:        st.access,
		AccessState:   st.state,
		LastGrantType: st.lastGrant,
		Options:       s.planOpts,
	})
}

// Ladder returns the fan's extras ladder status.
func (s *Service) Ladder(ctx context.Context, creatorID, fanID string) (ladder.LadderStatus, error) {
	ctx, span := tracer.Start(ctx, "assistant.ladder")
	defer span.End()
	span.SetAttributes(attribute.String("creator.id", creatorID), attribute.String("fan.id", fanID))

	if creatorID == "" {
		return ladder.LadderStatus{}, fail(span, ErrMissingCreatorID)
	}
	if _, err := s.fans.Get(ctx, creatorID, fanID); err != nil {
		return ladder.LadderStatus{}, fail(span, err)
	}
	purchases, err := s.fans.Purchases(ctx, creatorID, fanID)
	if err != nil {
		return ladder.LadderStatus{}, fail(span, err)
	}
	catalog, err := s.fans.Catalog(ctx, creatorID)
	if err != nil {
		return ladder.LadderStatus{}, fail(span, err)
	}
	status := ladder.Status(purchases, catalog)
	span.SetAttributes(attribute.String("ladder.phase", status.PhaseLabel))
	return status, nil
}

// PlanView is a chatter plan with the inputs it was derived from.
type PlanView struct {
	FanID       string                     `json:"fan_id"`
	Plan        chatterplan.Plan           `json:"plan"`
	Ladder      ladder.LadderStatus        `json:"ladder"`
	Session     ladder.SessionToday        `json:"session"`
	TurnMode    chatterplan.TurnMode       `json:"turn_mode"`
	Access      chatterplan.AccessSnapshot `json:"access"`
	AccessState chatterplan.AccessState    `json:"access_state"`
}

func (st *fanState) view() PlanView {
	return PlanView{
		FanID:       st.fan.ID,
		Plan:        st.plan,
		Ladder:      st.ladder,
		Session:     st.session,
		TurnMode:    st.settings.TurnMode,
		Access:      st.access,
		AccessState: st.state,
	}
}

// Plan returns the chatter plan for a fan.
func (s *Service) Plan(ctx context.Context, creatorID, fanID string) (PlanView, error) {
	ctx, span := tracer.Start(ctx, "assistant.plan")
	defer span.End()
	span.SetAttributes(attribute.String("creator.id", creatorID), attribute.String("fan.id", fanID))

	st, err := s.load(ctx, creatorID, fanID)
	if err != nil {
		return PlanView{}, fail(span, err)
	}
	span.SetAttributes(
		attribute.String("plan.focus", string(st.plan.Focus)),
		attribute.String("plan.branch", st.plan.Branch),
	)
	s.metrics.ObservePlan(string(st.plan.Focus), st.plan.Branch)
	s.emit(ctx, creatorID, events.TypePlanComputed, events.PlanComputed{
		FanID:  fanID,
		Focus:  st.plan.Focus,
		Step:   st.plan.Step,
		Usage:  st.plan.Usage,
		Branch: st.plan.Branch,
	})
	return st.view(), nil
}

// StageChange reports the outcome of an action key.
type StageChange struct {
	FanID     string       `json:"fan_id"`
	From      funnel.Stage `json:"from"`
	Stage     funnel.Stage `json:"stage"`
	Changed   bool         `json:"changed"`
	Rule      string       `json:"rule,omitempty"`
	ActionKey string       `json:"action_key"`
}

// AdvanceStage applies an action key to a fan and persists the new stage
// when a rule fired.
func (s *Service) AdvanceStage(ctx context.Context, creatorID, fanID, actionKey string) (StageChange, error) {
	ctx, span := tracer.Start(ctx, "assistant.advance_stage")
	defer span.End()
	span.SetAttributes(
		attribute.String("creator.id", creatorID),
		attribute.String("fan.id", fanID),
		attribute.String("stage.action_key", actionKey),
	)

	if creatorID == "" {
		return StageChange{}, fail(span, ErrMissingCreatorID)
	}
	fan, err := s.fans.Get(ctx, creatorID, fanID)
	if err != nil {
		return StageChange{}, fail(span, err)
	}

	change := StageChange{FanID: fanID, From: fan.Stage, Stage: fan.Stage, ActionKey: actionKey}
	next, ok := funnel.NextStage(fan.Stage, actionKey)
	if !ok {
		return change, nil
	}
	if err := s.fans.UpdateStage(ctx, creatorID, fanID, next); err != nil {
		return StageChange{}, fail(span, fmt.Errorf("assistant: persist stage: %w", err))
	}
	change.Stage = next
	change.Changed = true
	change.Rule = funnel.MatchingRule(fan.Stage, actionKey)
	span.SetAttributes(attribute.String("stage.to", string(next)), attribute.String("stage.rule", change.Rule))

	s.logger.Info("fan stage advanced",
		"creator_id", creatorID,
		"fan_id", fanID,
		"from", string(change.From),
		"to", string(next),
		"rule", change.Rule,
	)
	s.metrics.ObserveStageTransition(string(change.From), string(next))
	s.emit(ctx, creatorID, events.TypeStageAdvanced, events.StageAdvanced{
		FanID:     fanID,
		From:      change.From,
		To:        next,
		ActionKey: actionKey,
		Rule:      change.Rule,
	})
	return change, nil
}

func (s *Service) emit(ctx context.Context, creatorID string, eventType events.Type, payload any) {
	if err := events.Emit(ctx, s.events, creatorID, eventType, payload, s.now()); err != nil {
		s.logger.Warn("engine event publish failed", "creator_id", creatorID, "type", string(eventType), "error", err)
	}
}

// firstName returns the first word of a display name.
func firstName(display string) string {
	fields := strings.Fields(display)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
