package assistant

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/fans"
	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/priority"
)

// InboxEntry is one ranked fan.
type InboxEntry struct {
	FanID       string            `json:"fan_id"`
	DisplayName string            `json:"display_name"`
	Stage       funnel.Stage      `json:"stage"`
	Priority    priority.Result   `json:"priority"`
	Plan        *chatterplan.Plan `json:"plan,omitempty"`
}

// InboxOptions tunes Inbox.
type InboxOptions struct {
	// WithPlans computes the chatter plan per fan, which loads each fan's full
	// history.
	WithPlans bool
	Limit     int
}

// Inbox ranks a creator's fans by priority, most urgent first.
func (s *Service) Inbox(ctx context.Context, creatorID string, opts InboxOptions) ([]InboxEntry, error) {
	ctx, span := tracer.Start(ctx, "assistant.inbox")
	defer span.End()
	span.SetAttributes(attribute.String("creator.id", creatorID), attribute.Bool("inbox.with_plans", opts.WithPlans))

	started := time.Now()
	if creatorID == "" {
		return nil, fail(span, ErrMissingCreatorID)
	}
	list, err := s.fans.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, fail(span, err)
	}
	now := s.now()
	recent, err := s.fans.PurchasesSince(ctx, creatorID, now.Add(-30*24*time.Hour))
	if err != nil {
		return nil, fail(span, err)
	}

	byID := make(map[string]fans.Fan, len(list))
	inputs := make(map[string]priority.Input, len(list))
	for _, fan := range list {
		byID[fan.ID] = fan
		inputs[fan.ID] = fan.PriorityInput(now, recent[fan.ID])
	}
	ranked := priority.Rank(inputs)
	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}

	out := make([]InboxEntry, 0, len(ranked))
	for _, r := range ranked {
		fan := byID[r.FanID]
		out = append(out, InboxEntry{
			FanID:       fan.ID,
			DisplayName: fan.DisplayName,
			Stage:       fan.Stage,
			Priority:    r.Result,
		})
	}

	if opts.WithPlans {
		if err := s.attachPlans(ctx, creatorID, byID, out); err != nil {
			return nil, fail(span, err)
		}
	}

	span.SetAttributes(attribute.Int("inbox.size", len(out)))
	s.metrics.ObserveInboxLatency(time.Since(started).Seconds())
	return out, nil
}

func (s *Service) attachPlans(ctx context.Context, creatorID string, byID map[string]fans.Fan, entries []InboxEntry) error {
	catalog, err := s.fans.Catalog(ctx, creatorID)
	if err != nil {
		return err
	}
	settings, err := s.fans.Settings(ctx, creatorID)
	if err != nil {
		return err
	}
	for i := range entries {
		fan := byID[entries[i].FanID]
		purchases, err := s.fans.Purchases(ctx, creatorID, fan.ID)
		if err != nil {
			return err
		}
		grants, err := s.fans.Grants(ctx, creatorID, fan.ID)
		if err != nil {
			return err
		}
		st := &fanState{fan: &fan, purchases: purchases, catalog: catalog, settings: settings}
		s.derive(st, grants)
		plan := st.plan
		entries[i].Plan = &plan
	}
	return nil
}
