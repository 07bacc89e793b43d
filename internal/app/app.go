// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexnodeland/statusbar/internal/aggregator"
	"github.com/alexnodeland/statusbar/internal/config"
	"github.com/alexnodeland/statusbar/internal/domain"
	"github.com/alexnodeland/statusbar/internal/hooks"
	"github.com/alexnodeland/statusbar/internal/notifications"
	"github.com/alexnodeland/statusbar/internal/notifications/desktop"
	"github.com/alexnodeland/statusbar/internal/pkg/httputil"
	"github.com/alexnodeland/statusbar/internal/provider"
	"github.com/alexnodeland/statusbar/internal/sources"
	"github.com/alexnodeland/statusbar/internal/version"
)

// App represents the application instance.
type App struct {
	config    *config.Config
	logger    *slog.Logger
	registry  *sources.Registry
	engine    *aggregator.Engine
	scheduler *aggregator.Scheduler
	hooks     *hooks.Manager

	server        *http.Server
	metricsServer *http.Server

	schedulerCtx    context.Context
	schedulerCancel context.CancelFunc
	schedulerDone   chan struct{}
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	registry := sources.NewRegistry(cfg.Sources.Path)
	if err := registry.Load(); err != nil {
		return nil, fmt.Errorf("load source list: %w", err)
	}

	client := provider.NewClient(provider.ClientConfig{
		RequestTimeout:    cfg.Refresh.RequestTimeout,
		HostRateLimit:     cfg.Refresh.HostRateLimit,
		AllowPrivateHosts: cfg.Refresh.AllowPrivateHosts,
	})
	detector := provider.NewDetector(client)

	var hookManager *hooks.Manager
	if cfg.Hooks.Enabled {
		hookManager = hooks.NewManager(cfg.Hooks.Dir, cfg.Hooks.Timeout, logger)
		if err := hookManager.EnsureDirectory(); err != nil {
			logger.Warn("hooks directory unavailable", "dir", cfg.Hooks.Dir, "error", err)
		}
	}

	renderer, err := notifications.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create notification renderer: %w", err)
	}
	sender := desktop.NewSender(desktop.Config{Command: cfg.Notifications.Command})
	dispatcher := notifications.NewDispatcher(renderer, sender, hookManager, cfg.Notifications.Enabled, logger)

	engine := aggregator.New(detector, dispatcher, aggregator.Config{
		SourceTimeout: cfg.Refresh.SourceTimeout,
		MaxConcurrent: cfg.Refresh.MaxConcurrent,
	}, logger)

	for _, src := range registry.List() {
		engine.Track(src.ID)
	}

	scheduler := aggregator.NewScheduler(engine, registry, hookManager, cfg.Refresh.Interval, logger)

	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger,
		registry:        registry,
		engine:          engine,
		scheduler:       scheduler,
		hooks:           hookManager,
		schedulerCtx:    schedulerCtx,
		schedulerCancel: schedulerCancel,
		schedulerDone:   make(chan struct{}),
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           app.setupRouter(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the scheduler and the HTTP servers. It blocks until the main
// server stops.
func (a *App) Run() error {
	go func() {
		defer close(a.schedulerDone)
		a.scheduler.Start(a.schedulerCtx)
	}()

	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"sources", len(a.registry.List()),
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// ReloadSources re-reads the source list, resets state for removed sources,
// fires the add/remove hooks, and triggers a refresh cycle.
func (a *App) ReloadSources(ctx context.Context) error {
	added, removed, err := a.registry.Reload()
	if err != nil {
		return fmt.Errorf("reload sources: %w", err)
	}

	for _, src := range removed {
		a.engine.Remove(src.ID)
		if a.hooks != nil {
			a.hooks.Fire(ctx, hooks.EventSourceRemove,
				[]string{"SOURCE_NAME=" + src.Name, "SOURCE_URL=" + src.BaseURL},
				hooks.NewSourcePayload(hooks.EventSourceRemove, src.Name, src.BaseURL))
		}
	}

	for _, src := range added {
		a.engine.Track(src.ID)
		if a.hooks != nil {
			a.hooks.Fire(ctx, hooks.EventSourceAdd,
				[]string{"SOURCE_NAME=" + src.Name, "SOURCE_URL=" + src.BaseURL},
				hooks.NewSourcePayload(hooks.EventSourceAdd, src.Name, src.BaseURL))
		}
	}

	if len(added) > 0 || len(removed) > 0 {
		a.logger.Info("source list reloaded", "added", len(added), "removed", len(removed))
		a.scheduler.TriggerRefresh()
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	a.schedulerCancel()
	select {
	case <-a.schedulerDone:
	case <-ctx.Done():
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Scheduler returns the refresh scheduler. Used in tests.
func (a *App) Scheduler() *aggregator.Scheduler {
	return a.scheduler
}

func (a *App) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/version", a.versionHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", a.statusHandler)
		r.Get("/sources", a.listSourcesHandler)
		r.Get("/sources/{id}", a.getSourceHandler)
		r.Post("/refresh", a.refreshHandler)
	})

	return r
}

// sourceStatus is the API view of a source and its current state.
type sourceStatus struct {
	domain.Source
	State          domain.SourceState `json:"state"`
	LimitedHistory bool               `json:"limited_history"`
}

func (a *App) listSourcesHandler(w http.ResponseWriter, _ *http.Request) {
	srcs := a.registry.List()
	states := a.engine.States()

	out := make([]sourceStatus, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, sourceStatus{
			Source:         src,
			State:          states[src.ID],
			LimitedHistory: states[src.ID].Provider.LimitedHistory(),
		})
	}

	httputil.Success(w, http.StatusOK, out)
}

func (a *App) getSourceHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	src, err := a.registry.Lookup(id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
			{Error: sources.ErrNotFound, Status: http.StatusNotFound},
		})
		return
	}

	state, _ := a.engine.State(id)
	httputil.Success(w, http.StatusOK, sourceStatus{
		Source:         src,
		State:          state,
		LimitedHistory: state.Provider.LimitedHistory(),
	})
}

func (a *App) statusHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Success(w, http.StatusOK, map[string]any{
		"worst_indicator": a.engine.Worst(),
		"issue_count":     a.engine.IssueCount(),
		"source_count":    len(a.registry.List()),
	})
}

func (a *App) refreshHandler(w http.ResponseWriter, _ *http.Request) {
	a.scheduler.TriggerRefresh()
	httputil.Success(w, http.StatusAccepted, map[string]string{"status": "refresh triggered"})
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
