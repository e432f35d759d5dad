package fans

import (
	"time"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/ladder"
	"github.com/wolfman30/creator-sales-engine/internal/priority"
)

// Fan is the projection of a fan conversation the engine reads.
type Fan struct {
	ID             string           `json:"id"`
	CreatorID      string           `json:"creator_id"`
	DisplayName    string           `json:"display_name"`
	Stage          funnel.Stage     `json:"stage"`
	Objective      funnel.Objective `json:"objective"`
	Intensity      funnel.Intensity `json:"intensity"`
	Flags          priority.Flags   `json:"flags"`
	LastIncomingAt *time.Time       `json:"last_incoming_at,omitempty"`
	LastOutgoingAt *time.Time       `json:"last_outgoing_at,omitempty"`
	LastFanMessage string           `json:"last_fan_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreatorSettings are the per-creator knobs the engine reads.
type CreatorSettings struct {
	CreatorID string               `json:"creator_id"`
	TurnMode  chatterplan.TurnMode `json:"turn_mode"`
	Timezone  string               `json:"timezone,omitempty"`
}

// Location resolves the creator's timezone, falling back to fallback and then UTC.
func (s CreatorSettings) Location(fallback *time.Location) *time.Location {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			return loc
		}
	}
	if fallback != nil {
		return fallback
	}
	return time.UTC
}

// SpendWindows sums purchases in the trailing 7 and 30 days before now.
func SpendWindows(purchases []ladder.Purchase, now time.Time) (spent7d, spent30d float64) {
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)
	for _, p := range purchases {
		if p.Amount <= 0 || p.At.After(now) {
			continue
		}
		if !p.At.Before(monthAgo) {
			spent30d += p.Amount
		}
		if !p.At.Before(weekAgo) {
			spent7d += p.Amount
		}
	}
	return spent7d, spent30d
}

// PriorityInput builds the scorer input for the fan at now.
func (f Fan) PriorityInput(now time.Time, purchases []ladder.Purchase) priority.Input {
	spent7d, spent30d := SpendWindows(purchases, now)
	return priority.Input{
		Now:            now,
		LastIncomingAt: f.LastIncomingAt,
		LastOutgoingAt: f.LastOutgoingAt,
		Spent7d:        spent7d,
		Spent30d:       spent30d,
		Stage:          f.Stage,
		Objective:      f.Objective,
		Intensity:      f.Intensity,
		Flags:          f.Flags,
	}
}

// normalize coerces stored vocabulary values, defaulting unknown ones.
func (f *Fan) normalize() {
	if s, ok := funnel.ParseStage(string(f.Stage)); ok {
		f.Stage = s
	} else {
		f.Stage = funnel.StageNew
	}
	if o, ok := funnel.NormalizeObjective(string(f.Objective)); ok {
		f.Objective = o
	} else {
		f.Objective = funnel.ObjectiveConnect
	}
	f.Intensity = funnel.IntensityOrDefault(string(f.Intensity))
}
