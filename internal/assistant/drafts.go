package assistant

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/creator-sales-engine/internal/audit"
	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
	"github.com/wolfman30/creator-sales-engine/internal/events"
	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/ladder"
)

// DraftRequest asks for a draft for a stored fan. Empty fields are filled from
// the fan projection and its chatter plan.
type DraftRequest struct {
	Variant    int               `json:"variant"`
	Mode       drafting.Mode     `json:"mode"`
	Usage      chatterplan.Usage `json:"usage,omitempty"`
	OfferTitle string            `json:"offer_title,omitempty"`
	OfferTier  string            `json:"offer_tier,omitempty"`
	Intensity  funnel.Intensity  `json:"intensity,omitempty"`
}

// DraftOutcome is a built draft with its QA verdicts.
type DraftOutcome struct {
	Draft     drafting.Result          `json:"draft"`
	QA        drafting.QAResult        `json:"qa"`
	HardRules drafting.HardRulesResult `json:"hard_rules"`
	Usage     chatterplan.Usage        `json:"usage"`
	Plan      *chatterplan.Plan        `json:"plan,omitempty"`
}

// DraftForFan builds a draft for a stored fan using the pools of the usage
// the fan's chatter plan suggests.
func (s *Service) DraftForFan(ctx context.Context, creatorID, fanID string, req DraftRequest) (DraftOutcome, error) {
	ctx, span := tracer.Start(ctx, "assistant.draft_for_fan")
	defer span.End()
	span.SetAttributes(
		attribute.String("creator.id", creatorID),
		attribute.String("fan.id", fanID),
		attribute.Int("draft.variant", req.Variant),
	)

	st, err := s.load(ctx, creatorID, fanID)
	if err != nil {
		return DraftOutcome{}, fail(span, err)
	}

	usage := req.Usage
	if usage == "" {
		usage = st.plan.Usage
	}
	offerTitle, offerTier := req.OfferTitle, req.OfferTier
	if offerTitle == "" && offersExtra(st.plan.Focus) {
		offerTitle, offerTier = suggestedOffer(st.ladder, st.catalog)
	}
	intensity := req.Intensity
	if !intensity.Valid() {
		intensity = st.fan.Intensity
	}

	opts := drafting.Options{
		FanName:        firstName(st.fan.DisplayName),
		LastFanMessage: st.fan.LastFanMessage,
		Stage:          st.fan.Stage,
		Objective:      st.fan.Objective,
		Intensity:      intensity,
		OfferTitle:     offerTitle,
		OfferTier:      offerTier,
		Variant:        req.Variant,
		Mode:           drafting.ParseMode(string(req.Mode)),
		Pools:          s.pools.Pools(ctx, creatorID, usage),
	}
	out := s.compose(ctx, creatorID, fanID, usage, opts)
	plan := st.plan
	out.Plan = &plan

	span.SetAttributes(
		attribute.String("draft.usage", string(usage)),
		attribute.Int("draft.qa_score", out.QA.Score),
		attribute.String("draft.safety_gate", string(out.Draft.SafetyGate)),
	)
	return out, nil
}

// ComposeDraft builds a draft from caller-supplied options. When the options
// carry no pools, the creator's pools for usage are used.
func (s *Service) ComposeDraft(ctx context.Context, creatorID string, usage chatterplan.Usage, opts drafting.Options) (DraftOutcome, error) {
	ctx, span := tracer.Start(ctx, "assistant.compose_draft")
	defer span.End()
	span.SetAttributes(attribute.String("creator.id", creatorID))

	if creatorID == "" {
		return DraftOutcome{}, fail(span, ErrMissingCreatorID)
	}
	if usage == "" {
		usage = chatterplan.UsageExtraQuick
	}
	if opts.Pools.Empty() {
		opts.Pools = s.pools.Pools(ctx, creatorID, usage)
	}
	opts.Mode = drafting.ParseMode(string(opts.Mode))
	out := s.compose(ctx, creatorID, "", usage, opts)
	span.SetAttributes(attribute.Int("draft.qa_score", out.QA.Score))
	return out, nil
}

func (s *Service) compose(ctx context.Context, creatorID, fanID string, usage chatterplan.Usage, opts drafting.Options) DraftOutcome {
	draft := drafting.Build(opts)
	qa := drafting.ScoreDraft(draft.Text)
	hard := drafting.PassesHardRules(draft.Text)

	s.metrics.ObserveDraft(string(draft.SafetyGate), string(opts.Mode), qa.Score)
	if !hard.OK && len(hard.Warnings) > 0 {
		s.metrics.ObserveHardRuleReject(hard.Warnings[0])
	}
	if draft.SafetyGate != drafting.GateNone {
		s.logger.Warn("draft safety gate fired",
			"creator_id", creatorID,
			"fan_id", fanID,
			"gate", string(draft.SafetyGate),
		)
	}

	if s.audit != nil {
		event := audit.NewEvent(creatorID, fanID, string(usage), opts.Variant, opts.Mode, draft, qa)
		if err := s.audit.Record(ctx, event); err != nil {
			s.logger.Error("draft audit failed", "creator_id", creatorID, "fan_id", fanID, "error", err)
		}
	}
	s.emit(ctx, creatorID, events.TypeDraftGenerated, events.DraftGenerated{
		FanID:      fanID,
		Usage:      usage,
		Variant:    opts.Variant,
		Mode:       opts.Mode,
		SafetyGate: draft.SafetyGate,
		QAScore:    qa.Score,
		PassesHard: hard.OK,
	})

	return DraftOutcome{Draft: draft, QA: qa, HardRules: hard, Usage: usage}
}

func offersExtra(f chatterplan.Focus) bool {
	return f == chatterplan.FocusExtraLadder || f == chatterplan.FocusPackOffer
}

// suggestedOffer picks the cheapest active catalog item on the suggested rung.
func suggestedOffer(status ladder.LadderStatus, catalog []ladder.CatalogItem) (string, string) {
	if status.SuggestedTier == nil {
		return "", ""
	}
	item, ok := ladder.CheapestOnTier(catalog, *status.SuggestedTier)
	if !ok {
		return "", ""
	}
	return item.Title, item.Tier.String()
}
