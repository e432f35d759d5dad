package chatterplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func TestSnapshot_NoGrants(t *testing.T) {
	snap, state, last := Snapshot(nil, now)

	assert.Equal(t, AccessSnapshot{MonthlyDaysLeft: -1}, snap)
	assert.Equal(t, AccessNone, state)
	assert.Equal(t, GrantNone, last)
	assert.False(t, snap.HasPaidAccess())
}

func TestSnapshot_ActiveMonthly(t *testing.T) {
	grants := []Grant{{
		Type:      GrantMonthly,
		StartedAt: now.AddDate(0, 0, -25),
		ExpiresAt: timePtr(now.Add(4*24*time.Hour + time.Hour)),
	}}

	snap, state, last := Snapshot(grants, now)

	assert.True(t, snap.ActiveMonthly)
	assert.Equal(t, 5, snap.MonthlyDaysLeft)
	assert.Equal(t, AccessActive, state)
	assert.Equal(t, GrantMonthly, last)
}

func TestSnapshot_ExpiredAndRevoked(t *testing.T) {
	grants := []Grant{
		{Type: GrantMonthly, StartedAt: now.AddDate(0, -2, 0), ExpiresAt: timePtr(now.AddDate(0, -1, 0))},
		{Type: GrantSpecialPack, StartedAt: now.AddDate(0, 0, -3), Revoked: true},
	}

	snap, state, last := Snapshot(grants, now)

	assert.False(t, snap.HasPaidAccess())
	assert.True(t, snap.HasHistory)
	assert.Equal(t, -1, snap.MonthlyDaysLeft)
	assert.Equal(t, AccessExpired, state)
	assert.Equal(t, GrantSpecialPack, last)
}

func TestSnapshot_OpenEndedPack(t *testing.T) {
	grants := []Grant{
		{Type: GrantSpecialPack, StartedAt: now.AddDate(0, 0, -1)},
		{Type: GrantMonthly, StartedAt: now.Add(time.Hour)},
	}

	snap, state, last := Snapshot(grants, now)

	assert.True(t, snap.ActiveSpecialPack)
	assert.False(t, snap.ActiveMonthly, "future grant is not live yet")
	assert.Equal(t, AccessActive, state)
	assert.Equal(t, GrantMonthly, last)
}

func TestParseGrantType(t *testing.T) {
	assert.Equal(t, GrantMonthly, ParseGrantType("subscription"))
	assert.Equal(t, GrantMonthly, ParseGrantType(" monthly"))
	assert.Equal(t, GrantSpecialPack, ParseGrantType("pack"))
	assert.Equal(t, GrantNone, ParseGrantType("gift"))
}
