package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/alexnodeland/statusbar/internal/domain"
	"github.com/alexnodeland/statusbar/internal/hooks"
)

// Dispatcher maps severity transitions to their side effects: a desktop
// notification and the on-status-change hooks. The two paths are
// independent: hooks fire even when notifications are disabled, and neither
// failure blocks the other.
type Dispatcher struct {
	renderer *Renderer
	sender   Sender
	hooks    *hooks.Manager
	enabled  bool
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher. sender may be nil when notifications
// are disabled; hookManager may be nil when hooks are disabled.
func NewDispatcher(renderer *Renderer, sender Sender, hookManager *hooks.Manager, enabled bool, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		renderer: renderer,
		sender:   sender,
		hooks:    hookManager,
		enabled:  enabled,
		logger:   logger,
	}
}

// Dispatch fires the effects for a transition of the given source. No-op
// transitions are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, source domain.Source, transition domain.Transition, description string) {
	if transition == domain.TransitionNone {
		return
	}

	notification, ok, err := d.renderer.Render(source, transition, description)
	if err != nil {
		d.logger.Error("failed to render notification", "source", source.Name, "error", err)
		return
	}
	if !ok {
		return
	}

	d.logger.Info("status transition",
		"source", source.Name,
		"transition", transition,
		"title", notification.Title,
	)

	if d.enabled && d.sender != nil {
		start := time.Now()
		if err := d.sender.Send(ctx, notification); err != nil {
			recordNotificationSent(string(transition), "failed")
			d.logger.Warn("failed to send notification", "source", source.Name, "error", err)
		} else {
			recordNotificationSent(string(transition), "success")
			recordNotificationDuration(time.Since(start))
		}
	}

	if d.hooks != nil {
		// Hooks run on their own lifecycle so a slow script never extends
		// the refresh cycle. WithoutCancel keeps them alive past the
		// fetch deadline; the manager enforces its own timeout.
		go d.hooks.Fire(context.WithoutCancel(ctx), hooks.EventStatusChange,
			[]string{"SOURCE_NAME=" + source.Name, "SOURCE_URL=" + source.BaseURL},
			hooks.NewStatusChangePayload(source.Name, source.BaseURL, notification.Title, notification.Body))
	}
}
