// Package notifications turns classified severity transitions into local
// desktop notifications and hook invocations. Delivery is best-effort and
// fire-and-forget: failures are logged and counted, never propagated.
package notifications

import "context"

// Notification is a rendered user notification. URL points at the source's
// status page so activating the notification can open it.
type Notification struct {
	Title string
	Body  string
	URL   string
}

// Sender delivers a notification to the local OS.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}
