package fans

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/ladder"
)

// Repository reads fan projections and writes stage changes. Everything is
// scoped to a creator.
type Repository interface {
	Get(ctx context.Context, creatorID, fanID string) (*Fan, error)
	ListByCreator(ctx context.Context, creatorID string) ([]Fan, error)
	UpdateStage(ctx context.Context, creatorID, fanID string, stage funnel.Stage) error
	Purchases(ctx context.Context, creatorID, fanID string) ([]ladder.Purchase, error)
	PurchasesSince(ctx context.Context, creatorID string, since time.Time) (map[string][]ladder.Purchase, error)
	Grants(ctx context.Context, creatorID, fanID string) ([]chatterplan.Grant, error)
	Catalog(ctx context.Context, creatorID string) ([]ladder.CatalogItem, error)
	Settings(ctx context.Context, creatorID string) (CreatorSettings, error)
}

// InMemoryRepository keeps projections in maps. Used by tests and local runs
// without DATABASE_URL.
type InMemoryRepository struct {
	mu        sync.RWMutex
	fans      map[string]map[string]*Fan
	purchases map[string][]ladder.Purchase
	grants    map[string][]chatterplan.Grant
	catalog   map[string][]ladder.CatalogItem
	settings  map[string]CreatorSettings
	now       func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		fans:      make(map[string]map[string]*Fan),
		purchases: make(map[string][]ladder.Purchase),
		grants:    make(map[string][]chatterplan.Grant),
		catalog:   make(map[string][]ladder.CatalogItem),
		settings:  make(map[string]CreatorSettings),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func fanKey(creatorID, fanID string) string { return creatorID + "/" + fanID }

// Upsert stores a fan projection.
func (r *InMemoryRepository) Upsert(fan Fan) {
	fan.normalize()
	r.mu.Lock()
	defer r.mu.Unlock()
	byFan, ok := r.fans[fan.CreatorID]
	if !ok {
		byFan = make(map[string]*Fan)
		r.fans[fan.CreatorID] = byFan
	}
	if fan.CreatedAt.IsZero() {
		fan.CreatedAt = r.now()
	}
	fan.UpdatedAt = r.now()
	byFan[fan.ID] = &fan
}

// AddPurchase appends a purchase to a fan's history.
func (r *InMemoryRepository) AddPurchase(creatorID, fanID string, p ladder.Purchase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fanKey(creatorID, fanID)
	r.purchases[key] = append(r.purchases[key], p)
}

// AddGrant appends an access grant to a fan.
func (r *InMemoryRepository) AddGrant(creatorID, fanID string, g chatterplan.Grant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fanKey(creatorID, fanID)
	r.grants[key] = append(r.grants[key], g)
}

// SetCatalog replaces a creator's extras catalog.
func (r *InMemoryRepository) SetCatalog(creatorID string, items []ladder.CatalogItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog[creatorID] = append([]ladder.CatalogItem(nil), items...)
}

// SetSettings stores creator settings.
func (r *InMemoryRepository) SetSettings(s CreatorSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[s.CreatorID] = s
}

// Get returns a copy of the fan.
func (r *InMemoryRepository) Get(ctx context.Context, creatorID, fanID string) (*Fan, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fan, ok := r.fans[creatorID][fanID]
	if !ok {
		return nil, ErrFanNotFound
	}
	out := *fan
	return &out, nil
}

// ListByCreator returns every fan of the creator ordered by ID.
func (r *InMemoryRepository) ListByCreator(ctx context.Context, creatorID string) ([]Fan, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Fan, 0, len(r.fans[creatorID]))
	for _, fan := range r.fans[creatorID] {
		out = append(out, *fan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateStage persists a new stage.
func (r *InMemoryRepository) UpdateStage(ctx context.Context, creatorID, fanID string, stage funnel.Stage) error {
	if creatorID == "" {
		return ErrMissingCreatorID
	}
	if !stage.Valid() {
		return ErrInvalidStage
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fan, ok := r.fans[creatorID][fanID]
	if !ok {
		return ErrFanNotFound
	}
	fan.Stage = stage
	fan.UpdatedAt = r.now()
	return nil
}

// Purchases returns the fan's purchase history.
func (r *InMemoryRepository) Purchases(ctx context.Context, creatorID, fanID string) ([]ladder.Purchase, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ladder.Purchase(nil), r.purchases[fanKey(creatorID, fanID)]...), nil
}

// PurchasesSince groups the creator's purchases at or after since by fan.
func (r *InMemoryRepository) PurchasesSince(ctx context.Context, creatorID string, since time.Time) (map[string][]ladder.Purchase, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]ladder.Purchase)
	for fanID := range r.fans[creatorID] {
		for _, p := range r.purchases[fanKey(creatorID, fanID)] {
			if !p.At.Before(since) {
				out[fanID] = append(out[fanID], p)
			}
		}
	}
	return out, nil
}

// Grants returns the fan's access grants.
func (r *InMemoryRepository) Grants(ctx context.Context, creatorID, fanID string) ([]chatterplan.Grant, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]chatterplan.Grant(nil), r.grants[fanKey(creatorID, fanID)]...), nil
}

// Catalog returns the creator's extras catalog.
func (r *InMemoryRepository) Catalog(ctx context.Context, creatorID string) ([]ladder.CatalogItem, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ladder.CatalogItem(nil), r.catalog[creatorID]...), nil
}

// Settings returns creator settings, defaulting to BALANCED.
func (r *InMemoryRepository) Settings(ctx context.Context, creatorID string) (CreatorSettings, error) {
	if creatorID == "" {
		return CreatorSettings{}, ErrMissingCreatorID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[creatorID]
	if !ok {
		return CreatorSettings{CreatorID: creatorID, TurnMode: chatterplan.TurnBalanced}, nil
	}
	s.TurnMode = chatterplan.ParseTurnMode(string(s.TurnMode))
	return s, nil
}
