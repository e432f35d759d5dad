package events

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

type outboxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OutboxStore persists envelopes so a broker outage never loses an event.
// It satisfies Publisher; a Deliverer relays rows to the real transport.
type OutboxStore struct {
	pool outboxDB
}

// NewOutboxStore creates an outbox on a pgx pool.
func NewOutboxStore(pool outboxDB) *OutboxStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &OutboxStore{pool: pool}
}

// Publish inserts the envelope as a pending outbox row.
func (s *OutboxStore) Publish(ctx context.Context, env Envelope) error {
	query := `
		INSERT INTO engine_outbox (id, creator_id, type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.pool.Exec(ctx, query, env.ID, env.CreatorID, string(env.Type), []byte(env.Payload), env.OccurredAt); err != nil {
		return fmt.Errorf("events: insert outbox: %w", err)
	}
	return nil
}

// FetchPending returns undelivered envelopes, oldest first.
func (s *OutboxStore) FetchPending(ctx context.Context, limit int32) ([]Envelope, error) {
	query := `
		SELECT id, creator_id, type, payload, created_at
		FROM engine_outbox
		WHERE delivered_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("events: fetch pending: %w", err)
	}
	defer rows.Close()

	var entries []Envelope
	for rows.Next() {
		var (
			env       Envelope
			eventType string
			payload   []byte
		)
		if err := rows.Scan(&env.ID, &env.CreatorID, &eventType, &payload, &env.OccurredAt); err != nil {
			return nil, fmt.Errorf("events: scan outbox: %w", err)
		}
		env.Type = Type(eventType)
		env.Payload = append([]byte(nil), payload...)
		entries = append(entries, env)
	}
	return entries, rows.Err()
}

// MarkDelivered flags a row as sent. It reports false when another relay won.
func (s *OutboxStore) MarkDelivered(ctx context.Context, env Envelope) (bool, error) {
	query := `
		UPDATE engine_outbox
		SET delivered_at = now()
		WHERE id = $1 AND delivered_at IS NULL
	`
	ct, err := s.pool.Exec(ctx, query, env.ID)
	if err != nil {
		return false, fmt.Errorf("events: mark delivered: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// Deliverer polls the outbox and relays envelopes to a downstream publisher.
type Deliverer struct {
	store     *OutboxStore
	target    Publisher
	logger    *logging.Logger
	batchSize int32
	interval  time.Duration
}

// NewDeliverer relays from store to target.
func NewDeliverer(store *OutboxStore, target Publisher, logger *logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Deliverer{
		store:     store,
		target:    target,
		logger:    logger,
		batchSize: 25,
		interval:  2 * time.Second,
	}
}

func (d *Deliverer) WithBatchSize(size int32) *Deliverer {
	if size > 0 {
		d.batchSize = size
	}
	return d
}

func (d *Deliverer) WithInterval(interval time.Duration) *Deliverer {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// Start drains the outbox on every tick until ctx is done.
func (d *Deliverer) Start(ctx context.Context) {
	if d.store == nil || d.target == nil {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Drain(ctx)
		}
	}
}

// Drain relays one batch and returns how many envelopes were delivered.
func (d *Deliverer) Drain(ctx context.Context) int {
	entries, err := d.store.FetchPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("outbox fetch failed", "error", err)
		return 0
	}
	delivered := 0
	for _, env := range entries {
		if err := d.target.Publish(ctx, env); err != nil {
			d.logger.Error("outbox delivery failed", "error", err, "event_id", env.ID.String(), "type", string(env.Type))
			continue
		}
		if ok, err := d.store.MarkDelivered(ctx, env); err != nil {
			d.logger.Error("failed to mark outbox delivered", "error", err, "event_id", env.ID.String())
		} else if ok {
			delivered++
			d.logger.Debug("outbox delivered", "event_id", env.ID.String(), "type", string(env.Type))
		}
	}
	return delivered
}
