package ladder

import (
	"math"
	"sort"
	"time"
)

// Purchase is one paid extra from a fan's history.
type Purchase struct {
	ItemID   string    `json:"item_id,omitempty"`
	Amount   float64   `json:"amount"`
	At       time.Time `json:"at"`
	TierHint string    `json:"tier_hint,omitempty"`
}

// CatalogItem is an extra the creator currently sells.
type CatalogItem struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Tier   Tier    `json:"tier"`
	Price  float64 `json:"price"`
	Active bool    `json:"active"`
}

// LadderStatus is the read-only projection of a fan's purchase history.
type LadderStatus struct {
	TotalSpent     float64    `json:"total_spent"`
	PurchaseCount  int        `json:"purchase_count"`
	LastPurchaseAt *time.Time `json:"last_purchase_at"`
	MaxTierBought  *Tier      `json:"max_tier_bought"`
	SuggestedTier  *Tier      `json:"suggested_tier"`
	PhaseLabel     string     `json:"phase_label"`
}

// HasHistory reports whether the fan ever paid for an extra.
func (s LadderStatus) HasHistory() bool {
	return s.PurchaseCount > 0
}

// TierAtLeast reports whether the fan has bought at tier t or above.
func (s LadderStatus) TierAtLeast(t Tier) bool {
	return s.MaxTierBought != nil && *s.MaxTierBought >= t
}

// SessionToday counts extras bought by a fan in the current session day.
type SessionToday struct {
	ExtrasBought int `json:"extras_bought"`
}

// Status derives the ladder position of a fan from purchases and the creator's catalog.
// An empty catalog skips the sellability check on the suggested tier.
func Status(purchases []Purchase, catalog []CatalogItem) LadderStatus {
	byID := make(map[string]CatalogItem, len(catalog))
	for _, item := range catalog {
		if item.ID != "" {
			byID[item.ID] = item
		}
	}

	paid := make([]Purchase, 0, len(purchases))
	for _, p := range purchases {
		if p.Amount > 0 && !math.IsNaN(p.Amount) && !math.IsInf(p.Amount, 0) {
			paid = append(paid, p)
		}
	}
	sort.SliceStable(paid, func(i, j int) bool {
		return paid[i].At.After(paid[j].At)
	})

	var status LadderStatus
	for i, p := range paid {
		if i == 0 && !p.At.IsZero() {
			at := p.At
			status.LastPurchaseAt = &at
		}
		status.TotalSpent += p.Amount
		status.PurchaseCount++

		tier := purchaseTier(p, byID)
		if tier < T1 {
			continue
		}
		if status.MaxTierBought == nil || tier > *status.MaxTierBought {
			t := tier
			status.MaxTierBought = &t
		}
	}
	status.TotalSpent = math.Round(status.TotalSpent*100) / 100

	suggested := T1
	hasSuggestion := true
	if status.MaxTierBought != nil {
		suggested, hasSuggestion = status.MaxTierBought.Next()
	}
	if hasSuggestion && (len(catalog) == 0 || sellable(catalog, suggested)) {
		status.SuggestedTier = &suggested
	}

	status.PhaseLabel = PhaseLabel(status.MaxTierBought)
	return status
}

func purchaseTier(p Purchase, catalog map[string]CatalogItem) Tier {
	if t, ok := ParseTier(p.TierHint); ok {
		return t
	}
	if item, ok := catalog[p.ItemID]; ok && item.Tier.Valid() {
		return item.Tier
	}
	return TierForAmount(p.Amount)
}

func sellable(catalog []CatalogItem, t Tier) bool {
	for _, item := range catalog {
		if item.Active && item.Tier == t {
			return true
		}
	}
	return false
}

// CheapestOnTier returns the lowest-priced active catalog item on tier t.
func CheapestOnTier(catalog []CatalogItem, t Tier) (CatalogItem, bool) {
	var best CatalogItem
	found := false
	for _, item := range catalog {
		if !item.Active || item.Tier != t {
			continue
		}
		if !found || item.Price < best.Price || (item.Price == best.Price && item.ID < best.ID) {
			best = item
			found = true
		}
	}
	return best, found
}

// ExtrasToday counts positive purchases made on the calendar day of now in loc.
func ExtrasToday(purchases []Purchase, now time.Time, loc *time.Location) SessionToday {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	var count int
	for _, p := range purchases {
		if p.Amount <= 0 {
			continue
		}
		if !p.At.Before(start) && p.At.Before(end) {
			count++
		}
	}
	return SessionToday{ExtrasBought: count}
}
