package chatterplan

import (
	"math"
	"strings"
	"time"
)

// GrantType is the kind of paid access a fan holds or held.
type GrantType string

const (
	GrantNone        GrantType = ""
	GrantMonthly     GrantType = "MONTHLY"
	GrantSpecialPack GrantType = "SPECIAL_PACK"
)

// ParseGrantType coerces free text; unknown values become GrantNone.
func ParseGrantType(raw string) GrantType {
	switch GrantType(strings.ToUpper(strings.TrimSpace(raw))) {
	case GrantMonthly, "SUBSCRIPTION":
		return GrantMonthly
	case GrantSpecialPack, "PACK":
		return GrantSpecialPack
	default:
		return GrantNone
	}
}

// AccessState summarizes whether a fan's paid access is live.
type AccessState string

const (
	AccessNone    AccessState = "NONE"
	AccessActive  AccessState = "ACTIVE"
	AccessExpired AccessState = "EXPIRED"
)

// Grant is one record of paid access.
type Grant struct {
	Type      GrantType  `json:"type"`
	StartedAt time.Time  `json:"started_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Revoked   bool       `json:"revoked,omitempty"`
}

// AccessSnapshot is the live view of a fan's grants at one instant.
type AccessSnapshot struct {
	ActiveMonthly     bool `json:"active_monthly"`
	MonthlyDaysLeft   int  `json:"monthly_days_left"`
	ActiveSpecialPack bool `json:"active_special_pack"`
	HasHistory        bool `json:"has_history"`
}

// HasPaidAccess reports whether any paid grant is live.
func (s AccessSnapshot) HasPaidAccess() bool {
	return s.ActiveMonthly || s.ActiveSpecialPack
}

// Snapshot derives the access snapshot, overall state and most recent grant
// type from raw grants. MonthlyDaysLeft is -1 when there is no active monthly
// with a known expiry.
func Snapshot(grants []Grant, now time.Time) (AccessSnapshot, AccessState, GrantType) {
	snap := AccessSnapshot{MonthlyDaysLeft: -1}
	var last *Grant
	for i := range grants {
		g := grants[i]
		if g.Type == GrantNone {
			continue
		}
		snap.HasHistory = true
		if last == nil || g.StartedAt.After(last.StartedAt) {
			last = &grants[i]
		}
		if g.Revoked || !live(g, now) {
			continue
		}
		switch g.Type {
		case GrantMonthly:
			snap.ActiveMonthly = true
			if g.ExpiresAt != nil {
				days := daysUntil(now, *g.ExpiresAt)
				if snap.MonthlyDaysLeft < 0 || days > snap.MonthlyDaysLeft {
					snap.MonthlyDaysLeft = days
				}
			}
		case GrantSpecialPack:
			snap.ActiveSpecialPack = true
		}
	}

	state := AccessNone
	switch {
	case snap.HasPaidAccess():
		state = AccessActive
	case snap.HasHistory:
		state = AccessExpired
	}

	lastType := GrantNone
	if last != nil {
		lastType = last.Type
	}
	return snap, state, lastType
}

func live(g Grant, now time.Time) bool {
	if !g.StartedAt.IsZero() && g.StartedAt.After(now) {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}

// daysUntil rounds partial days up so an expiry later today counts as 1 day.
func daysUntil(now, expires time.Time) int {
	hours := expires.Sub(now).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Ceil(hours / 24))
}
