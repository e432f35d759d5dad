package templates

import (
	"context"
	"fmt"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

// Overrides is the per-creator override lookup.
type Overrides interface {
	Get(ctx context.Context, creatorID string, usage chatterplan.Usage) (drafting.Pools, bool, error)
}

// OverrideWriter stores and clears per-creator overrides.
type OverrideWriter interface {
	Set(ctx context.Context, creatorID string, usage chatterplan.Usage, pools drafting.Pools) error
	Delete(ctx context.Context, creatorID string, usage chatterplan.Usage) error
}

type fallbackObserver interface {
	ObserveTemplateFallback(reason string)
}

// Source resolves the pools a draft should use: the creator's override when
// there is one, else the catalog defaults.
type Source struct {
	catalog   Catalog
	overrides Overrides
	logger    *logging.Logger
	metrics   fallbackObserver
}

// NewSource builds a Source. overrides may be nil.
func NewSource(catalog Catalog, overrides Overrides, logger *logging.Logger) *Source {
	if logger == nil {
		logger = logging.Default()
	}
	return &Source{catalog: catalog, overrides: overrides, logger: logger}
}

// WithMetrics records lookups that ended on the defaults.
func (s *Source) WithMetrics(m fallbackObserver) *Source {
	s.metrics = m
	return s
}

func (s *Source) fallback(reason string) {
	if s.metrics != nil {
		s.metrics.ObserveTemplateFallback(reason)
	}
}

// Pools never fails: an override lookup error is logged and the defaults
// are used.
func (s *Source) Pools(ctx context.Context, creatorID string, usage chatterplan.Usage) drafting.Pools {
	if s.overrides != nil && creatorID != "" {
		pools, ok, err := s.overrides.Get(ctx, creatorID, usage)
		switch {
		case err != nil:
			s.logger.Warn("template override lookup failed", "creator_id", creatorID, "usage", usage, "error", err)
			s.fallback("override_error")
		case ok:
			return pools
		}
	}
	if pools, ok := s.catalog.Pools(usage); ok {
		return pools
	}
	s.fallback("missing_usage")
	// extra_quick is the broadest pool and covers usages a custom catalog left out
	pools, _ := s.catalog.Pools(chatterplan.UsageExtraQuick)
	return pools
}

// Resolved is the pool set a creator's drafts use for one usage.
type Resolved struct {
	Usage    chatterplan.Usage `json:"usage"`
	Override bool              `json:"override"`
	Pools    drafting.Pools    `json:"pools"`
}

// Resolve reports the pools for usage and whether they come from an
// override. Unlike Pools it surfaces override lookup errors.
func (s *Source) Resolve(ctx context.Context, creatorID string, usage chatterplan.Usage) (Resolved, error) {
	if _, ok := chatterplan.ParseUsage(string(usage)); !ok {
		return Resolved{}, fmt.Errorf("templates: %w: %q", ErrUnknownUsage, usage)
	}
	if s.overrides != nil && creatorID != "" {
		pools, ok, err := s.overrides.Get(ctx, creatorID, usage)
		if err != nil {
			return Resolved{}, err
		}
		if ok {
			return Resolved{Usage: usage, Override: true, Pools: pools}, nil
		}
	}
	pools, _ := s.catalog.Pools(usage)
	return Resolved{Usage: usage, Pools: pools}, nil
}

func (s *Source) writer() (OverrideWriter, error) {
	w, ok := s.overrides.(OverrideWriter)
	if !ok {
		return nil, ErrOverridesUnavailable
	}
	return w, nil
}

// SaveOverride replaces the creator's pools for usage.
func (s *Source) SaveOverride(ctx context.Context, creatorID string, usage chatterplan.Usage, pools drafting.Pools) error {
	w, err := s.writer()
	if err != nil {
		return err
	}
	if err := w.Set(ctx, creatorID, usage, pools); err != nil {
		return err
	}
	s.logger.Info("template override saved", "creator_id", creatorID, "usage", usage)
	return nil
}

// ClearOverride drops the creator's pools for usage so the defaults apply.
func (s *Source) ClearOverride(ctx context.Context, creatorID string, usage chatterplan.Usage) error {
	w, err := s.writer()
	if err != nil {
		return err
	}
	if _, ok := chatterplan.ParseUsage(string(usage)); !ok {
		return fmt.Errorf("templates: %w: %q", ErrUnknownUsage, usage)
	}
	if err := w.Delete(ctx, creatorID, usage); err != nil {
		return err
	}
	s.logger.Info("template override cleared", "creator_id", creatorID, "usage", usage)
	return nil
}
