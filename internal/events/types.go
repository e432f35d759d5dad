// Package events fans engine decisions out to downstream consumers.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
	"github.com/wolfman30/creator-sales-engine/internal/funnel"
)

// Type names an engine event.
type Type string

const (
	TypeDraftGenerated Type = "draft.generated"
	TypeStageAdvanced  Type = "stage.advanced"
	TypePlanComputed   Type = "plan.computed"
)

// Envelope wraps every payload on the wire.
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	CreatorID  string          `json:"creator_id"`
	Type       Type            `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEnvelope marshals payload into a fresh envelope.
func NewEnvelope(creatorID string, eventType Type, payload any, now time.Time) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	return Envelope{
		ID:         uuid.New(),
		CreatorID:  creatorID,
		Type:       eventType,
		Payload:    data,
		OccurredAt: now.UTC(),
	}, nil
}

// DraftGenerated is published after a draft is built for a fan.
type DraftGenerated struct {
	FanID      string              `json:"fan_id"`
	Usage      chatterplan.Usage   `json:"usage"`
	Variant    int                 `json:"variant"`
	Mode       drafting.Mode       `json:"mode"`
	SafetyGate drafting.SafetyGate `json:"safety_gate,omitempty"`
	QAScore    int                 `json:"qa_score"`
	PassesHard bool                `json:"passes_hard_rules"`
}

// StageAdvanced is published when an action key moved a fan's stage.
type StageAdvanced struct {
	FanID     string       `json:"fan_id"`
	From      funnel.Stage `json:"from"`
	To        funnel.Stage `json:"to"`
	ActionKey string       `json:"action_key"`
	Rule      string       `json:"rule"`
}

// PlanComputed is published when a chatter plan is served for a fan.
type PlanComputed struct {
	FanID  string            `json:"fan_id"`
	Focus  chatterplan.Focus `json:"focus"`
	Step   chatterplan.Step  `json:"step"`
	Usage  chatterplan.Usage `json:"usage"`
	Branch string            `json:"branch"`
}
