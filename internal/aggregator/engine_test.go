package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexnodeland/statusbar/internal/domain"
	"github.com/alexnodeland/statusbar/internal/hooks"
	"github.com/alexnodeland/statusbar/internal/notifications"
	"github.com/alexnodeland/statusbar/internal/provider"
	"github.com/alexnodeland/statusbar/internal/testutil"
)

// mockEffects implements Effects for testing.
type mockEffects struct {
	mu         sync.Mutex
	dispatches []dispatchCall
}

type dispatchCall struct {
	source      domain.Source
	transition  domain.Transition
	description string
}

func (m *mockEffects) Dispatch(_ context.Context, source domain.Source, transition domain.Transition, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches = append(m.dispatches, dispatchCall{source, transition, description})
}

func (m *mockEffects) calls() []dispatchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dispatchCall(nil), m.dispatches...)
}

func newTestEngine(effects Effects, sourceTimeout time.Duration) (*Engine, *provider.Detector) {
	client := provider.NewClient(provider.ClientConfig{
		RequestTimeout:    5 * time.Second,
		HostRateLimit:     1000,
		AllowPrivateHosts: true,
	})
	detector := provider.NewDetector(client)
	engine := New(detector, effects, Config{
		SourceTimeout: sourceTimeout,
		MaxConcurrent: 4,
	}, nil)
	return engine, detector
}

func TestRefreshSuccess(t *testing.T) {
	server := testutil.NewVendorServer(t, map[string]string{
		"/api/v2/summary.json":   testutil.StatuspageSummary("none", "All systems operational", true),
		"/api/v2/incidents.json": testutil.StatuspageIncidents,
	})

	effects := &mockEffects{}
	engine, _ := newTestEngine(effects, 10*time.Second)
	src := domain.NewSource("s1", "Example", server.URL)

	engine.Refresh(context.Background(), src)

	state, ok := engine.State("s1")
	require.True(t, ok)
	require.NotNil(t, state.Summary)
	assert.Equal(t, domain.SeverityNone, state.Summary.Indicator)
	assert.Equal(t, domain.ProviderStatuspage, state.Provider)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.LastError)
	assert.NotNil(t, state.LastRefresh)
	assert.Len(t, state.RecentIncidents, 2)

	// First observation at operational: no effect.
	assert.Empty(t, effects.calls())
}

func TestRefreshFailureIsolation(t *testing.T) {
	// Three sources: one hangs past the source timeout, two respond.
	okBody := testutil.StatuspageSummary("none", "ok", true)

	okServer1 := testutil.NewVendorServer(t, map[string]string{"/api/v2/summary.json": okBody})
	okServer2 := testutil.NewVendorServer(t, map[string]string{"/api/v2/summary.json": okBody})

	slowServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slowServer.Close)

	engine, _ := newTestEngine(&mockEffects{}, 300*time.Millisecond)
	srcs := []domain.Source{
		domain.NewSource("ok1", "OK One", okServer1.URL),
		domain.NewSource("slow", "Slow", slowServer.URL),
		domain.NewSource("ok2", "OK Two", okServer2.URL),
	}

	engine.RefreshAll(context.Background(), srcs)

	ok1, _ := engine.State("ok1")
	ok2, _ := engine.State("ok2")
	slow, _ := engine.State("slow")

	assert.Empty(t, ok1.LastError)
	assert.NotNil(t, ok1.Summary)
	assert.Empty(t, ok2.LastError)
	assert.NotNil(t, ok2.Summary)
	assert.NotEmpty(t, slow.LastError)
	assert.Nil(t, slow.Summary)
}

func TestRefreshFailureKeepsStaleSummary(t *testing.T) {
	routes := map[string]string{
		"/api/v2/summary.json": testutil.StatuspageSummary("none", "ok", true),
	}
	server := testutil.NewVendorServer(t, routes)

	engine, detector := newTestEngine(&mockEffects{}, 10*time.Second)
	src := domain.NewSource("s1", "Example", server.URL)

	engine.Refresh(context.Background(), src)
	state, _ := engine.State("s1")
	require.NotNil(t, state.Summary)

	// Break the endpoint: the summary must survive, the error must be
	// recorded, and the cached classification must be dropped.
	delete(routes, "/api/v2/summary.json")
	engine.Refresh(context.Background(), src)

	state, _ = engine.State("s1")
	assert.NotNil(t, state.Summary, "stale summary is preferred over blanking")
	assert.NotEmpty(t, state.LastError)

	_, cached := detector.Cached("s1")
	assert.False(t, cached, "failed fetch must invalidate the provider cache")
}

func TestRefreshDispatchesTransitions(t *testing.T) {
	routes := map[string]string{
		"/api/v2/summary.json": testutil.StatuspageSummary("major", "Major outage", true),
	}
	server := testutil.NewVendorServer(t, routes)

	effects := &mockEffects{}
	engine, _ := newTestEngine(effects, 10*time.Second)
	src := domain.NewSource("s1", "Example", server.URL)

	// First-ever observation at major: initial incident.
	engine.Refresh(context.Background(), src)
	calls := effects.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.TransitionInitialIncident, calls[0].transition)
	assert.Equal(t, "Major outage", calls[0].description)

	// Back to operational: recovered.
	routes["/api/v2/summary.json"] = testutil.StatuspageSummary("none", "All systems operational", true)
	engine.Refresh(context.Background(), src)
	calls = effects.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.TransitionRecovered, calls[1].transition)

	// Steady state: nothing new.
	engine.Refresh(context.Background(), src)
	assert.Len(t, effects.calls(), 2)
}

func TestRefreshUnknownIndicatorStaysSilent(t *testing.T) {
	routes := map[string]string{
		"/api/v2/summary.json": testutil.StatuspageSummary("something-new", "Unrecognized state", true),
	}
	server := testutil.NewVendorServer(t, routes)

	effects := &mockEffects{}
	engine, _ := newTestEngine(effects, 10*time.Second)
	src := domain.NewSource("s1", "Example", server.URL)

	// An unrecognized indicator is no observation at all.
	engine.Refresh(context.Background(), src)
	assert.Empty(t, effects.calls())

	// Returning to operational from unknown is not a recovery and,
	// crucially, not a degradation either.
	routes["/api/v2/summary.json"] = testutil.StatuspageSummary("none", "All systems operational", true)
	engine.Refresh(context.Background(), src)
	assert.Empty(t, effects.calls())

	// A real incident after an unknown stretch reads as the first one.
	routes["/api/v2/summary.json"] = testutil.StatuspageSummary("major", "Major outage", true)
	engine.Refresh(context.Background(), src)
	routes["/api/v2/summary.json"] = testutil.StatuspageSummary("something-new", "Unrecognized state", true)
	engine.Refresh(context.Background(), src)
	routes["/api/v2/summary.json"] = testutil.StatuspageSummary("critical", "Full outage", true)
	engine.Refresh(context.Background(), src)

	calls := effects.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.TransitionInitialIncident, calls[0].transition)
	assert.Equal(t, domain.TransitionInitialIncident, calls[1].transition)
}

func TestWorstAndIssueCount(t *testing.T) {
	minorServer := testutil.NewVendorServer(t, map[string]string{
		"/api/v2/summary.json": testutil.StatuspageSummary("minor", "degraded", true),
	})
	noneServer := testutil.NewVendorServer(t, map[string]string{
		"/api/v2/summary.json": testutil.StatuspageSummary("none", "ok", true),
	})

	engine, _ := newTestEngine(&mockEffects{}, 10*time.Second)
	engine.RefreshAll(context.Background(), []domain.Source{
		domain.NewSource("a", "A", minorServer.URL),
		domain.NewSource("b", "B", noneServer.URL),
	})

	assert.Equal(t, domain.SeverityMinor, engine.Worst())
	assert.Equal(t, 1, engine.IssueCount())
}

func TestWorstAllUnknown(t *testing.T) {
	engine, _ := newTestEngine(&mockEffects{}, time.Second)
	engine.Track("a")
	engine.Track("b")

	assert.Equal(t, domain.SeverityUnknown, engine.Worst())
	assert.Equal(t, 0, engine.IssueCount())
}

func TestRemove(t *testing.T) {
	server := testutil.NewVendorServer(t, map[string]string{
		"/api/v2/summary.json": testutil.StatuspageSummary("major", "outage", true),
	})

	effects := &mockEffects{}
	engine, _ := newTestEngine(effects, 10*time.Second)
	src := domain.NewSource("s1", "Example", server.URL)

	engine.Refresh(context.Background(), src)
	_, ok := engine.State("s1")
	require.True(t, ok)

	engine.Remove("s1")
	_, ok = engine.State("s1")
	assert.False(t, ok)

	// Re-adding starts from scratch: the next observation at major is an
	// initial incident again, not a steady state.
	engine.Refresh(context.Background(), src)
	calls := effects.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.TransitionInitialIncident, calls[1].transition)
}

func TestRefreshAllNotGatedOnHooks(t *testing.T) {
	server := testutil.NewVendorServer(t, map[string]string{
		"/api/v2/summary.json": testutil.StatuspageSummary("minor", "Minor service outage", true),
	})

	hookDir := t.TempDir()
	marker := filepath.Join(t.TempDir(), "done")
	script := "#!/bin/sh\nsleep 2\ntouch \"" + marker + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(hookDir, "notify.sh"), []byte(script), 0o755))

	manager := hooks.NewManager(hookDir, 10*time.Second, nil)
	renderer, err := notifications.NewRenderer()
	require.NoError(t, err)
	dispatcher := notifications.NewDispatcher(renderer, nil, manager, false, nil)

	engine, _ := newTestEngine(dispatcher, 10*time.Second)
	src := domain.NewSource("s1", "Example", server.URL)

	start := time.Now()
	engine.RefreshAll(context.Background(), []domain.Source{src})
	elapsed := time.Since(start)

	// The minor indicator on first observation fires the hook; the cycle
	// must not wait the two seconds the script sleeps.
	assert.Less(t, elapsed, time.Second)
	require.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRefreshSkipsInFlightDuplicate(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	engine, _ := newTestEngine(&mockEffects{}, 10*time.Second)
	src := domain.NewSource("s1", "Example", server.URL)

	done := make(chan struct{})
	go func() {
		engine.Refresh(context.Background(), src)
		close(done)
	}()

	<-started
	// The duplicate must return immediately instead of queueing a second
	// write for the same source.
	finished := make(chan struct{})
	go func() {
		engine.Refresh(context.Background(), src)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("duplicate refresh blocked instead of being skipped")
	}

	select {
	case <-done:
		t.Fatal("original refresh finished before release; test setup broken")
	default:
	}
}
