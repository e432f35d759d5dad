// Package audit keeps an append-only trail of generated drafts.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wolfman30/creator-sales-engine/internal/drafting"
)

// ErrMissingCreatorID is returned when an event or query has no creator scope.
var ErrMissingCreatorID = errors.New("audit: creator id is required")

// Event is one generated draft as shown to the creator.
type Event struct {
	ID         string                   `json:"id"`
	CreatorID  string                   `json:"creator_id"`
	FanID      string                   `json:"fan_id,omitempty"`
	Usage      string                   `json:"usage,omitempty"`
	Variant    int                      `json:"variant"`
	Mode       drafting.Mode            `json:"mode"`
	Text       string                   `json:"text"`
	Used       map[drafting.Slot]string `json:"used,omitempty"`
	Context    *string                  `json:"context,omitempty"`
	SafetyGate drafting.SafetyGate      `json:"safety_gate,omitempty"`
	QAScore    int                      `json:"qa_score"`
	Warnings   []string                 `json:"warnings"`
	CreatedAt  time.Time                `json:"created_at"`
}

// NewEvent assembles an event from a draft and its QA result.
func NewEvent(creatorID, fanID, usage string, variant int, mode drafting.Mode, draft drafting.Result, qa drafting.QAResult) Event {
	return Event{
		CreatorID:  creatorID,
		FanID:      fanID,
		Usage:      usage,
		Variant:    variant,
		Mode:       mode,
		Text:       draft.Text,
		Used:       draft.Used,
		Context:    draft.Context,
		SafetyGate: draft.SafetyGate,
		QAScore:    qa.Score,
		Warnings:   qa.Warnings,
	}
}

// Recorder persists draft events.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// Store writes draft events to Postgres through database/sql.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a new audit store.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("audit: sql db required")
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Record inserts a draft event.
func (s *Store) Record(ctx context.Context, event Event) error {
	if event.CreatorID == "" {
		return ErrMissingCreatorID
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	used, err := json.Marshal(event.Used)
	if err != nil {
		return fmt.Errorf("audit: marshal used blocks: %w", err)
	}
	warnings := event.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	query := `
		INSERT INTO draft_audit_events (
			id, creator_id, fan_id, usage, variant, mode, text,
			used_blocks, context, safety_gate, qa_score, warnings, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.CreatorID,
		nullString(event.FanID),
		nullString(event.Usage),
		event.Variant,
		string(event.Mode),
		event.Text,
		used,
		nullStringPtr(event.Context),
		nullString(string(event.SafetyGate)),
		event.QAScore,
		pq.Array(warnings),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to record draft event: %w", err)
	}
	return nil
}

// Filter narrows ListEvents.
type Filter struct {
	CreatorID string
	FanID     string
	Since     time.Time
	Limit     int
}

// ListEvents returns a creator's draft events, newest first.
func (s *Store) ListEvents(ctx context.Context, filter Filter) ([]Event, error) {
	if filter.CreatorID == "" {
		return nil, ErrMissingCreatorID
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}

	query := `
		SELECT id, creator_id, fan_id, usage, variant, mode, text,
		       used_blocks, context, safety_gate, qa_score, warnings, created_at
		FROM draft_audit_events
		WHERE creator_id = $1
		  AND ($2 = '' OR fan_id = $2)
		  AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query, filter.CreatorID, filter.FanID, filter.Since, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to query draft events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e                        Event
			fanID, usage, ctxt, gate sql.NullString
			mode                     string
			used                     []byte
		)
		if err := rows.Scan(&e.ID, &e.CreatorID, &fanID, &usage, &e.Variant, &mode, &e.Text,
			&used, &ctxt, &gate, &e.QAScore, pq.Array(&e.Warnings), &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: failed to scan draft event: %w", err)
		}
		e.FanID = fanID.String
		e.Usage = usage.String
		e.Mode = drafting.ParseMode(mode)
		e.SafetyGate = drafting.SafetyGate(gate.String)
		if ctxt.Valid {
			snippet := ctxt.String
			e.Context = &snippet
		}
		if len(used) > 0 {
			if err := json.Unmarshal(used, &e.Used); err != nil {
				return nil, fmt.Errorf("audit: failed to decode used blocks: %w", err)
			}
		}
		if e.Warnings == nil {
			e.Warnings = []string{}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: failed to query draft events: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}
