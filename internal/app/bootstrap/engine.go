package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/creator-sales-engine/internal/assistant"
	"github.com/wolfman30/creator-sales-engine/internal/audit"
	appconfig "github.com/wolfman30/creator-sales-engine/internal/config"
	"github.com/wolfman30/creator-sales-engine/internal/events"
	"github.com/wolfman30/creator-sales-engine/internal/fans"
	"github.com/wolfman30/creator-sales-engine/internal/observability/metrics"
	"github.com/wolfman30/creator-sales-engine/internal/templates"
	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

// BuildTemplateSource loads the template catalog (TEMPLATES_PATH layered over
// the embedded defaults) and attaches Redis overrides when a client exists.
func BuildTemplateSource(cfg *appconfig.Config, client *redis.Client, m *metrics.EngineMetrics, logger *logging.Logger) (*templates.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	var (
		catalog templates.Catalog
		err     error
	)
	if path := strings.TrimSpace(cfg.TemplatesPath); path != "" {
		catalog, err = templates.Load(path)
	} else {
		catalog, err = templates.Defaults()
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load templates: %w", err)
	}

	var overrides templates.Overrides
	if client != nil {
		overrides = templates.NewRedisStore(client)
	}
	source := templates.NewSource(catalog, overrides, logger)
	if m != nil {
		source = source.WithMetrics(m)
	}
	return source, nil
}

// Publishing is the event path of the engine.
type Publishing struct {
	Publisher events.Publisher
	// Deliverer relays the outbox to Kafka; nil when events go direct.
	Deliverer *events.Deliverer
	closers   []func() error
}

// Close releases the broker writer.
func (p *Publishing) Close() error {
	var firstErr error
	for _, closeFn := range p.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildPublishing picks the event path: outbox plus Kafka relay when both a
// database and brokers exist, Kafka direct without a database, and a log-only
// publisher without brokers.
func BuildPublishing(cfg *appconfig.Config, pool *pgxpool.Pool, logger *logging.Logger) *Publishing {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || len(cfg.KafkaBrokers) == 0 {
		logger.Info("engine events logged only", "reason", "no kafka brokers")
		return &Publishing{Publisher: events.NewLogPublisher(logger)}
	}

	kafka := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEngineTopic, logger)
	out := &Publishing{closers: []func() error{kafka.Close}}
	if pool == nil {
		logger.Info("engine events published to kafka", "topic", cfg.KafkaEngineTopic)
		out.Publisher = kafka
		return out
	}

	store := events.NewOutboxStore(pool)
	out.Publisher = store
	out.Deliverer = events.NewDeliverer(store, kafka, logger).WithInterval(cfg.OutboxDeliveryPeriod)
	logger.Info("engine events relayed through outbox", "topic", cfg.KafkaEngineTopic)
	return out
}

// BuildAuditStore returns nil without a database, which turns the draft
// audit trail off.
func BuildAuditStore(db *sql.DB) *audit.Store {
	if db == nil {
		return nil
	}
	return audit.NewStore(db)
}

// BuildService wires the assistant over the available stores. Without a pgx
// pool the fan projections live in memory, which suits local runs.
func BuildService(cfg *appconfig.Config, pool *pgxpool.Pool, auditStore *audit.Store, source assistant.PoolSource, pub events.Publisher, m *metrics.EngineMetrics, logger *logging.Logger) *assistant.Service {
	if logger == nil {
		logger = logging.Default()
	}
	var repo fans.Repository
	if pool != nil {
		repo = fans.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory fan store")
		repo = fans.NewInMemoryRepository()
	}

	svc := assistant.NewService(repo, source, logger).
		WithPublisher(pub).
		WithMetrics(m).
		WithPlanOptions(cfg.PlanOptions()).
		WithLocation(cfg.Location())
	if auditStore != nil {
		svc = svc.WithAudit(auditStore)
	}
	return svc
}

// StartDeliverer runs the outbox relay until ctx ends. It is a no-op without
// a deliverer.
func (p *Publishing) StartDeliverer(ctx context.Context) {
	if p == nil || p.Deliverer == nil {
		return
	}
	go p.Deliverer.Start(ctx)
}
