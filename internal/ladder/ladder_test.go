package ladder

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func fullCatalog() []CatalogItem {
	return []CatalogItem{
		{ID: "teaser", Title: "Teaser", Tier: T0, Price: 0, Active: true},
		{ID: "selfie", Title: "Selfie set", Tier: T1, Price: 7, Active: true},
		{ID: "voice", Title: "Voice note", Tier: T2, Price: 15, Active: true},
		{ID: "video", Title: "Short video", Tier: T3, Price: 35, Active: true},
		{ID: "custom", Title: "Custom video", Tier: T4, Price: 90, Active: true},
	}
}

func TestStatus_EmptyHistory(t *testing.T) {
	status := Status(nil, nil)

	assert.Equal(t, 0.0, status.TotalSpent)
	assert.Nil(t, status.MaxTierBought)
	assert.Nil(t, status.LastPurchaseAt)
	require.NotNil(t, status.SuggestedTier)
	assert.Equal(t, T1, *status.SuggestedTier)
	assert.Equal(t, "Phase 0 – no extras yet", status.PhaseLabel)
	assert.False(t, status.HasHistory())
}

func TestStatus_WalksHistory(t *testing.T) {
	purchases := []Purchase{
		{ItemID: "selfie", Amount: 7, At: baseTime.Add(-72 * time.Hour)},
		{ItemID: "voice", Amount: 15, At: baseTime.Add(-2 * time.Hour)},
		{Amount: 0, At: baseTime.Add(-1 * time.Hour), TierHint: "T4"},
		{Amount: -5, At: baseTime, TierHint: "T4"},
	}

	status := Status(purchases, fullCatalog())

	assert.Equal(t, 22.0, status.TotalSpent)
	assert.Equal(t, 2, status.PurchaseCount)
	require.NotNil(t, status.LastPurchaseAt)
	assert.Equal(t, baseTime.Add(-2*time.Hour), *status.LastPurchaseAt)
	require.NotNil(t, status.MaxTierBought)
	assert.Equal(t, T2, *status.MaxTierBought)
	require.NotNil(t, status.SuggestedTier)
	assert.Equal(t, T3, *status.SuggestedTier)
	assert.Equal(t, "Phase 2 – climbing the ladder", status.PhaseLabel)
}

func TestStatus_TierSources(t *testing.T) {
	tests := []struct {
		name     string
		purchase Purchase
		want     Tier
	}{
		{"hint wins", Purchase{ItemID: "selfie", Amount: 7, TierHint: "t3"}, T3},
		{"catalog item", Purchase{ItemID: "video", Amount: 1}, T3},
		{"amount band", Purchase{Amount: 24.99}, T2},
		{"large amount", Purchase{Amount: 120}, T4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.purchase.At = baseTime
			status := Status([]Purchase{tt.purchase}, fullCatalog())
			require.NotNil(t, status.MaxTierBought)
			assert.Equal(t, tt.want, *status.MaxTierBought)
		})
	}
}

func TestStatus_TeaserTierDoesNotCount(t *testing.T) {
	status := Status([]Purchase{{ItemID: "teaser", Amount: 1, At: baseTime}}, fullCatalog())

	assert.Equal(t, 1.0, status.TotalSpent)
	assert.Nil(t, status.MaxTierBought)
	require.NotNil(t, status.SuggestedTier)
	assert.Equal(t, T1, *status.SuggestedTier)
}

func TestStatus_CeilingAtT4(t *testing.T) {
	status := Status([]Purchase{
		{Amount: 5, At: baseTime.Add(-time.Hour), TierHint: "T1"},
		{Amount: 90, At: baseTime, TierHint: "T4"},
	}, fullCatalog())

	require.NotNil(t, status.MaxTierBought)
	assert.Equal(t, T4, *status.MaxTierBought)
	assert.Nil(t, status.SuggestedTier)
	assert.Equal(t, "Phase 4 – top of the ladder", status.PhaseLabel)
}

func TestStatus_UnsellableSuggestionDowngraded(t *testing.T) {
	catalog := []CatalogItem{
		{ID: "selfie", Tier: T1, Price: 7, Active: true},
		{ID: "video", Tier: T3, Price: 35, Active: true},
		{ID: "voice", Tier: T2, Price: 15, Active: false},
	}
	status := Status([]Purchase{{ItemID: "selfie", Amount: 7, At: baseTime}}, catalog)

	require.NotNil(t, status.MaxTierBought)
	assert.Equal(t, T1, *status.MaxTierBought)
	assert.Nil(t, status.SuggestedTier, "inactive T2 item must not be suggested")
}

func TestStatus_IsDeterministic(t *testing.T) {
	purchases := []Purchase{
		{Amount: 9.99, At: baseTime.Add(-time.Hour)},
		{Amount: 19.99, At: baseTime},
		{Amount: 9.99, At: baseTime.Add(-time.Hour)},
	}
	first := Status(purchases, fullCatalog())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Status(purchases, fullCatalog()))
	}
	assert.Equal(t, 39.97, first.TotalSpent)
}

func TestExtrasToday(t *testing.T) {
	cet := time.FixedZone("CET", 3600)

	now := time.Date(2026, 3, 14, 23, 30, 0, 0, cet)
	purchases := []Purchase{
		{Amount: 7, At: time.Date(2026, 3, 14, 0, 5, 0, 0, cet)},
		{Amount: 15, At: time.Date(2026, 3, 14, 22, 0, 0, 0, cet)},
		{Amount: 15, At: time.Date(2026, 3, 13, 23, 59, 0, 0, cet)},
		{Amount: 0, At: time.Date(2026, 3, 14, 12, 0, 0, 0, cet)},
	}

	assert.Equal(t, SessionToday{ExtrasBought: 2}, ExtrasToday(purchases, now, cet))
	assert.Equal(t, SessionToday{}, ExtrasToday(nil, now, nil))
}

func TestTierText(t *testing.T) {
	out, err := json.Marshal(struct {
		Tier *Tier `json:"tier"`
		None *Tier `json:"none"`
	}{Tier: ptr(T3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"T3","none":null}`, string(out))

	var decoded struct {
		Tier Tier `json:"tier"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tier":"t2"}`), &decoded))
	assert.Equal(t, T2, decoded.Tier)

	assert.Error(t, json.Unmarshal([]byte(`{"tier":"T9"}`), &decoded))
}

func TestTierJSONAcceptsNumbers(t *testing.T) {
	tests := []struct {
		raw     string
		want    Tier
		wantErr bool
	}{
		{raw: `1`, want: T1},
		{raw: `"T2"`, want: T2},
		{raw: `"3"`, want: T3},
		{raw: `4`, want: T4},
		{raw: `7`, wantErr: true},
		{raw: `1.5`, wantErr: true},
		{raw: `"gold"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var item CatalogItem
			err := json.Unmarshal([]byte(`{"id":"a","tier":`+tt.raw+`}`), &item)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, item.Tier)
		})
	}
}

func TestCheapestOnTier(t *testing.T) {
	catalog := append(fullCatalog(), CatalogItem{ID: "voice-b", Tier: T2, Price: 12, Active: true})
	item, ok := CheapestOnTier(catalog, T2)
	require.True(t, ok)
	assert.Equal(t, "voice-b", item.ID)

	_, ok = CheapestOnTier(nil, T2)
	assert.False(t, ok)
}

func ptr(t Tier) *Tier { return &t }
