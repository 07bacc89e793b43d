package aggregator

import (
	"context"
	"log/slog"
	"time"

	"github.com/alexnodeland/statusbar/internal/domain"
	"github.com/alexnodeland/statusbar/internal/hooks"
	"github.com/alexnodeland/statusbar/internal/pkg/metrics"
)

// SourceLister yields the configured sources for a cycle. Implemented by the
// source registry.
type SourceLister interface {
	List() []domain.Source
}

// Scheduler drives refresh cycles on a ticker and on manual triggers. Each
// cycle snapshots the source list, refreshes everything, then fires the
// on-refresh hooks with the aggregate result.
type Scheduler struct {
	engine   *Engine
	sources  SourceLister
	hooks    *hooks.Manager
	interval time.Duration
	logger   *slog.Logger

	trigger chan struct{}
}

// NewScheduler creates a scheduler. hookManager may be nil when hooks are
// disabled.
func NewScheduler(engine *Engine, sources SourceLister, hookManager *hooks.Manager, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		engine:   engine,
		sources:  sources,
		hooks:    hookManager,
		interval: interval,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Start runs cycles until the context is cancelled. The first cycle runs
// immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("refresh scheduler started", "interval", s.interval)

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.trigger:
			s.RunOnce(ctx)
		}
	}
}

// TriggerRefresh requests an immediate cycle. Non-blocking; a pending
// trigger coalesces with an already-queued one.
func (s *Scheduler) TriggerRefresh() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// RunOnce performs a single refresh cycle.
func (s *Scheduler) RunOnce(ctx context.Context) {
	srcs := s.sources.List()
	metrics.RecordSourcesConfigured(len(srcs))

	if len(srcs) == 0 {
		s.logger.Debug("no sources configured")
	} else {
		s.engine.RefreshAll(ctx, srcs)
	}

	// The gauge and the on-refresh hook still fire with an empty list so
	// removing the last source does not leave stale readings behind.
	worst := s.engine.Worst()
	metrics.RecordWorstSeverity(int(worst))

	if s.hooks != nil {
		s.hooks.Fire(ctx, hooks.EventRefresh, nil, hooks.NewRefreshPayload(len(srcs), worst.String()))
	}
}
