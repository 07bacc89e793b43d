// Package aggregator is the status aggregation engine: it fans one fetch out
// per configured source, normalizes results into a keyed state store, and
// classifies severity transitions for the effect dispatcher.
//
// Concurrency discipline: the state map is mutex-guarded and each entry is
// written only by the refresh of its own source. Refresh cycles may overlap
// with the next tick; a refresh of a source that is already in flight is
// skipped rather than queued, which keeps same-source writes from ever
// interleaving.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alexnodeland/statusbar/internal/domain"
	"github.com/alexnodeland/statusbar/internal/pkg/metrics"
	"github.com/alexnodeland/statusbar/internal/provider"
)

// Effects receives classified transitions. Implemented by the notifications
// dispatcher.
type Effects interface {
	Dispatch(ctx context.Context, source domain.Source, transition domain.Transition, description string)
}

// Config controls the engine.
type Config struct {
	// SourceTimeout bounds the total fetch of one source, across all the
	// requests its adapter issues.
	SourceTimeout time.Duration
	// MaxConcurrent bounds how many sources refresh at once.
	MaxConcurrent int
}

// Engine owns the per-source state map.
type Engine struct {
	detector *provider.Detector
	effects  Effects
	logger   *slog.Logger
	config   Config

	mu       sync.Mutex
	states   map[string]*domain.SourceState
	previous map[string]domain.Severity
	inflight map[string]bool
}

// New creates an engine.
func New(detector *provider.Detector, effects Effects, config Config, logger *slog.Logger) *Engine {
	if config.SourceTimeout <= 0 {
		config.SourceTimeout = 30 * time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		detector: detector,
		effects:  effects,
		logger:   logger,
		config:   config,
		states:   make(map[string]*domain.SourceState),
		previous: make(map[string]domain.Severity),
		inflight: make(map[string]bool),
	}
}

// RefreshAll refreshes every given source concurrently and returns once all
// complete. One source's latency or failure never blocks or fails another's.
func (e *Engine) RefreshAll(ctx context.Context, srcs []domain.Source) {
	start := time.Now()

	sem := make(chan struct{}, e.config.MaxConcurrent)
	var wg sync.WaitGroup

	for _, src := range srcs {
		wg.Add(1)
		sem <- struct{}{}

		go func(s domain.Source) {
			defer wg.Done()
			defer func() { <-sem }()
			e.Refresh(ctx, s)
		}(src)
	}

	wg.Wait()

	duration := time.Since(start)
	metrics.RecordRefreshCycle(duration)
	e.logger.Debug("refresh cycle complete",
		"sources", len(srcs),
		"duration_ms", duration.Milliseconds(),
	)
}

// Refresh fetches one source and updates its state. Failures are isolated:
// the provider classification is invalidated so the next cycle re-detects,
// the error is recorded, and any previously fetched summary stays in place
// so a transient failure does not blank the presentation.
func (e *Engine) Refresh(ctx context.Context, src domain.Source) {
	e.mu.Lock()
	if e.inflight[src.ID] {
		e.mu.Unlock()
		e.logger.Debug("refresh already in flight, skipping", "source", src.Name)
		return
	}
	e.inflight[src.ID] = true
	state := e.ensureStateLocked(src.ID)
	state.IsLoading = true
	state.LastError = ""
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inflight, src.ID)
		if s, ok := e.states[src.ID]; ok {
			s.IsLoading = false
		}
		e.mu.Unlock()
	}()

	kind := e.detector.Resolve(ctx, src)
	adapter := e.detector.AdapterFor(kind)

	fetchCtx, cancel := context.WithTimeout(ctx, e.config.SourceTimeout)
	defer cancel()

	result, err := adapter.Fetch(fetchCtx, src.BaseURL)
	if err != nil {
		metrics.RecordSourceFetch(string(kind), "error")
		e.detector.Invalidate(src.ID)

		e.mu.Lock()
		if s, ok := e.states[src.ID]; ok {
			s.LastError = err.Error()
		}
		e.mu.Unlock()

		e.logger.Warn("source refresh failed",
			"source", src.Name,
			"provider", kind,
			"error", err,
		)
		return
	}

	metrics.RecordSourceFetch(string(kind), "success")

	now := time.Now()
	indicator := result.Summary.Indicator

	e.mu.Lock()
	state, ok := e.states[src.ID]
	if !ok {
		// Source was removed while its fetch was in flight; discard.
		e.mu.Unlock()
		return
	}
	var prev *domain.Severity
	if p, seen := e.previous[src.ID]; seen {
		prev = &p
	}
	state.Summary = result.Summary
	state.RecentIncidents = result.RecentIncidents
	state.Provider = kind
	state.LastRefresh = &now
	state.LastError = ""
	e.previous[src.ID] = indicator
	e.mu.Unlock()

	transition := domain.Classify(prev, indicator)
	if transition != domain.TransitionNone && e.effects != nil {
		e.effects.Dispatch(ctx, src, transition, result.Summary.Description)
	}
}

// State returns a copy of a source's state.
func (e *Engine) State(sourceID string) (domain.SourceState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.states[sourceID]
	if !ok {
		return domain.SourceState{}, false
	}
	return *state, true
}

// States returns a copy of the whole state map.
func (e *Engine) States() map[string]domain.SourceState {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]domain.SourceState, len(e.states))
	for id, state := range e.states {
		out[id] = *state
	}
	return out
}

// Worst returns the worst indicator across all sources. Unknown counts only
// when every source is unknown.
func (e *Engine) Worst() domain.Severity {
	e.mu.Lock()
	defer e.mu.Unlock()

	severities := make([]domain.Severity, 0, len(e.states))
	for _, state := range e.states {
		severities = append(severities, state.Indicator())
	}
	return domain.WorstSeverity(severities)
}

// IssueCount returns how many sources currently report an issue. Unknown
// sources are excluded.
func (e *Engine) IssueCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, state := range e.states {
		if state.Indicator().IsIssue() {
			count++
		}
	}
	return count
}

// Track creates zero-valued state for a source so it shows up before its
// first refresh completes.
func (e *Engine) Track(sourceID string) {
	e.mu.Lock()
	e.ensureStateLocked(sourceID)
	e.mu.Unlock()
}

// Remove discards a source's state, its previous-indicator record, and its
// cached provider classification. An in-flight fetch for the source is
// discarded when it lands.
func (e *Engine) Remove(sourceID string) {
	e.mu.Lock()
	delete(e.states, sourceID)
	delete(e.previous, sourceID)
	e.mu.Unlock()

	e.detector.Invalidate(sourceID)
}

func (e *Engine) ensureStateLocked(sourceID string) *domain.SourceState {
	state, ok := e.states[sourceID]
	if !ok {
		state = &domain.SourceState{}
		e.states[sourceID] = state
	}
	return state
}
