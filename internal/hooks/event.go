// Package hooks discovers executable hook scripts and runs them on lifecycle
// events with a bounded timeout, an EVENT environment variable, and a JSON
// payload on standard input.
package hooks

// Event is a hook lifecycle event. The value is the wire name passed to
// scripts via the EVENT environment variable and the payload's event field.
type Event string

// Hook events.
const (
	EventStatusChange Event = "on-status-change"
	EventRefresh      Event = "on-refresh"
	EventSourceAdd    Event = "on-source-add"
	EventSourceRemove Event = "on-source-remove"
)

// StatusChangePayload is sent to hooks when a source's severity transitions.
type StatusChangePayload struct {
	Event      Event  `json:"event"`
	SourceName string `json:"source_name"`
	SourceURL  string `json:"source_url"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// RefreshPayload is sent to hooks after a refresh cycle completes.
type RefreshPayload struct {
	Event       Event  `json:"event"`
	SourceCount int    `json:"source_count"`
	WorstLevel  string `json:"worst_level"`
}

// SourcePayload is sent to hooks when a source is added or removed.
type SourcePayload struct {
	Event      Event  `json:"event"`
	SourceName string `json:"source_name"`
	SourceURL  string `json:"source_url"`
}

// NewStatusChangePayload builds the on-status-change payload.
func NewStatusChangePayload(sourceName, sourceURL, title, body string) StatusChangePayload {
	return StatusChangePayload{
		Event:      EventStatusChange,
		SourceName: sourceName,
		SourceURL:  sourceURL,
		Title:      title,
		Body:       body,
	}
}

// NewRefreshPayload builds the on-refresh payload.
func NewRefreshPayload(sourceCount int, worstLevel string) RefreshPayload {
	return RefreshPayload{
		Event:       EventRefresh,
		SourceCount: sourceCount,
		WorstLevel:  worstLevel,
	}
}

// NewSourcePayload builds the on-source-add / on-source-remove payload.
func NewSourcePayload(event Event, sourceName, sourceURL string) SourcePayload {
	return SourcePayload{
		Event:      event,
		SourceName: sourceName,
		SourceURL:  sourceURL,
	}
}
