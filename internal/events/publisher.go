package events

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

// Publisher delivers envelopes to a transport.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Emit wraps payload in an envelope and publishes it. A nil publisher is a no-op.
func Emit(ctx context.Context, pub Publisher, creatorID string, eventType Type, payload any, now time.Time) error {
	if pub == nil {
		return nil
	}
	env, err := NewEnvelope(creatorID, eventType, payload, now)
	if err != nil {
		return err
	}
	return pub.Publish(ctx, env)
}

// MemoryPublisher keeps envelopes in memory for tests and local runs.
type MemoryPublisher struct {
	mu        sync.Mutex
	envelopes []Envelope
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish records the envelope.
func (p *MemoryPublisher) Publish(ctx context.Context, env Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, env)
	return nil
}

// Envelopes returns a copy of everything published so far.
func (p *MemoryPublisher) Envelopes() []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Envelope(nil), p.envelopes...)
}

// LogPublisher writes envelopes to the logger. Used when no broker is configured.
type LogPublisher struct {
	logger *logging.Logger
}

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the envelope metadata.
func (p *LogPublisher) Publish(ctx context.Context, env Envelope) error {
	p.logger.Debug("engine event",
		"event_id", env.ID.String(),
		"creator_id", env.CreatorID,
		"type", string(env.Type),
	)
	return nil
}
