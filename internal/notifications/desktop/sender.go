// Package desktop delivers notifications through the local OS notification
// command.
package desktop

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/alexnodeland/statusbar/internal/notifications"
)

const defaultTimeout = 5 * time.Second

// Config holds desktop sender configuration.
type Config struct {
	// Command overrides the platform default notification binary. It
	// receives the title, body, and status page URL as arguments, so a
	// wrapper script can make the notification open the page. The stock
	// notify-send and osascript invocations take no URL.
	Command string
	Timeout time.Duration
}

// Sender shells out to the platform notification command. Notifications are
// fire-and-forget; a missing binary surfaces as an error the dispatcher
// logs once per send.
type Sender struct {
	config Config
}

// NewSender creates a desktop sender.
func NewSender(config Config) *Sender {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Sender{config: config}
}

// Send implements notifications.Sender.
func (s *Sender) Send(ctx context.Context, n notifications.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	name, args := s.command(n)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("send desktop notification: %w", err)
	}
	return nil
}

func (s *Sender) command(n notifications.Notification) (string, []string) {
	if s.config.Command != "" {
		return s.config.Command, []string{n.Title, n.Body, n.URL}
	}

	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf("display notification %q with title %q", n.Body, n.Title)
		return "osascript", []string{"-e", script}
	}
	return "notify-send", []string{n.Title, n.Body}
}
