package fans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/ladder"
)

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository reads fan projections from Postgres. *pgxpool.Pool
// satisfies the db interface.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool db) *PostgresRepository {
	if pool == nil {
		panic("fans: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

const fanColumns = `id, creator_id, display_name, stage, objective, intensity,
		vip, expired, at_risk, is_new, last_incoming_at, last_outgoing_at,
		last_fan_message, created_at, updated_at`

func scanFan(row pgx.Row) (*Fan, error) {
	var (
		fan                         Fan
		stage, objective, intensity string
	)
	if err := row.Scan(
		&fan.ID,
		&fan.CreatorID,
		&fan.DisplayName,
		&stage,
		&objective,
		&intensity,
		&fan.Flags.VIP,
		&fan.Flags.Expired,
		&fan.Flags.AtRisk,
		&fan.Flags.IsNew,
		&fan.LastIncomingAt,
		&fan.LastOutgoingAt,
		&fan.LastFanMessage,
		&fan.CreatedAt,
		&fan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	fan.Stage = funnel.Stage(stage)
	fan.Objective = funnel.Objective(objective)
	fan.Intensity = funnel.Intensity(intensity)
	fan.normalize()
	return &fan, nil
}

// Get fetches a fan scoped to the creator.
func (r *PostgresRepository) Get(ctx context.Context, creatorID, fanID string) (*Fan, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	query := `SELECT ` + fanColumns + `
		FROM fans
		WHERE creator_id = $1 AND id = $2`
	fan, err := scanFan(r.db.QueryRow(ctx, query, creatorID, fanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFanNotFound
		}
		return nil, fmt.Errorf("fans: select failed: %w", err)
	}
	return fan, nil
}

// ListByCreator returns every fan of the creator ordered by ID.
func (r *PostgresRepository) ListByCreator(ctx context.Context, creatorID string) ([]Fan, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	query := `SELECT ` + fanColumns + `
		FROM fans
		WHERE creator_id = $1
		ORDER BY id`
	rows, err := r.db.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("fans: list failed: %w", err)
	}
	defer rows.Close()

	var out []Fan
	for rows.Next() {
		fan, err := scanFan(rows)
		if err != nil {
			return nil, fmt.Errorf("fans: scan failed: %w", err)
		}
		out = append(out, *fan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fans: list failed: %w", err)
	}
	return out, nil
}

// UpdateStage persists a new stage.
func (r *PostgresRepository) UpdateStage(ctx context.Context, creatorID, fanID string, stage funnel.Stage) error {
	if creatorID == "" {
		return ErrMissingCreatorID
	}
	if !stage.Valid() {
		return ErrInvalidStage
	}
	query := `
		UPDATE fans
		SET stage = $3, updated_at = now()
		WHERE creator_id = $1 AND id = $2
	`
	tag, err := r.db.Exec(ctx, query, creatorID, fanID, string(stage))
	if err != nil {
		return fmt.Errorf("fans: update stage failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFanNotFound
	}
	return nil
}

func scanPurchases(rows pgx.Rows, withFan bool) (map[string][]ladder.Purchase, error) {
	defer rows.Close()
	out := make(map[string][]ladder.Purchase)
	for rows.Next() {
		var (
			fanID    string
			p        ladder.Purchase
			itemID   *string
			tierHint *string
		)
		dest := []any{&itemID, &p.Amount, &p.At, &tierHint}
		if withFan {
			dest = append([]any{&fanID}, dest...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("fans: scan purchase failed: %w", err)
		}
		if itemID != nil {
			p.ItemID = *itemID
		}
		if tierHint != nil {
			p.TierHint = *tierHint
		}
		out[fanID] = append(out[fanID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fans: purchases failed: %w", err)
	}
	return out, nil
}

// Purchases returns the fan's purchase history, most recent first.
func (r *PostgresRepository) Purchases(ctx context.Context, creatorID, fanID string) ([]ladder.Purchase, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	query := `
		SELECT item_id, amount, purchased_at, tier_hint
		FROM fan_purchases
		WHERE creator_id = $1 AND fan_id = $2
		ORDER BY purchased_at DESC
	`
	rows, err := r.db.Query(ctx, query, creatorID, fanID)
	if err != nil {
		return nil, fmt.Errorf("fans: purchases failed: %w", err)
	}
	byFan, err := scanPurchases(rows, false)
	if err != nil {
		return nil, err
	}
	return byFan[""], nil
}

// PurchasesSince groups the creator's purchases at or after since by fan.
func (r *PostgresRepository) PurchasesSince(ctx context.Context, creatorID string, since time.Time) (map[string][]ladder.Purchase, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	query := `
		SELECT fan_id, item_id, amount, purchased_at, tier_hint
		FROM fan_purchases
		WHERE creator_id = $1 AND purchased_at >= $2
		ORDER BY fan_id, purchased_at DESC
	`
	rows, err := r.db.Query(ctx, query, creatorID, since)
	if err != nil {
		return nil, fmt.Errorf("fans: purchases failed: %w", err)
	}
	return scanPurchases(rows, true)
}

// Grants returns the fan's access grants.
func (r *PostgresRepository) Grants(ctx context.Context, creatorID, fanID string) ([]chatterplan.Grant, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	query := `
		SELECT grant_type, started_at, expires_at, revoked
		FROM fan_access_grants
		WHERE creator_id = $1 AND fan_id = $2
		ORDER BY started_at
	`
	rows, err := r.db.Query(ctx, query, creatorID, fanID)
	if err != nil {
		return nil, fmt.Errorf("fans: grants failed: %w", err)
	}
	defer rows.Close()

	var out []chatterplan.Grant
	for rows.Next() {
		var (
			g         chatterplan.Grant
			grantType string
		)
		if err := rows.Scan(&grantType, &g.StartedAt, &g.ExpiresAt, &g.Revoked); err != nil {
			return nil, fmt.Errorf("fans: scan grant failed: %w", err)
		}
		g.Type = chatterplan.ParseGrantType(grantType)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fans: grants failed: %w", err)
	}
	return out, nil
}

// Catalog returns the creator's extras catalog, cheapest first.
func (r *PostgresRepository) Catalog(ctx context.Context, creatorID string) ([]ladder.CatalogItem, error) {
	if creatorID == "" {
		return nil, ErrMissingCreatorID
	}
	query := `
		SELECT id, title, tier, price, active
		FROM extras_catalog
		WHERE creator_id = $1
		ORDER BY price, id
	`
	rows, err := r.db.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("fans: catalog failed: %w", err)
	}
	defer rows.Close()

	var out []ladder.CatalogItem
	for rows.Next() {
		var (
			item ladder.CatalogItem
			tier int16
		)
		if err := rows.Scan(&item.ID, &item.Title, &tier, &item.Price, &item.Active); err != nil {
			return nil, fmt.Errorf("fans: scan catalog failed: %w", err)
		}
		item.Tier = ladder.Tier(tier)
		if !item.Tier.Valid() {
			continue
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fans: catalog failed: %w", err)
	}
	return out, nil
}

// Settings returns creator settings, defaulting to BALANCED when unset.
func (r *PostgresRepository) Settings(ctx context.Context, creatorID string) (CreatorSettings, error) {
	if creatorID == "" {
		return CreatorSettings{}, ErrMissingCreatorID
	}
	query := `
		SELECT turn_mode, COALESCE(timezone, '')
		FROM creator_settings
		WHERE creator_id = $1
	`
	s := CreatorSettings{CreatorID: creatorID}
	var turnMode string
	if err := r.db.QueryRow(ctx, query, creatorID).Scan(&turnMode, &s.Timezone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.TurnMode = chatterplan.TurnBalanced
			return s, nil
		}
		return CreatorSettings{}, fmt.Errorf("fans: settings failed: %w", err)
	}
	s.TurnMode = chatterplan.ParseTurnMode(turnMode)
	return s, nil
}
