package domain

import (
	"strings"
	"time"
)

// Source is a configured status page to monitor. It is treated as an
// immutable value for the duration of a refresh cycle; the registry owns
// creation and identity.
type Source struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
}

// NewSource creates a source with a normalized base URL.
func NewSource(id, name, baseURL string) Source {
	return Source{
		ID:      id,
		Name:    name,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Summary is the normalized per-source snapshot produced by an adapter.
type Summary struct {
	PageName        string      `json:"page_name"`
	PageURL         string      `json:"page_url"`
	Indicator       Severity    `json:"indicator"`
	Description     string      `json:"description"`
	Components      []Component `json:"components"`
	ActiveIncidents []Incident  `json:"active_incidents"`
}

// Component is a single monitored component of a status page.
type Component struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	Description   string `json:"description,omitempty"`
	Ordinal       int    `json:"ordinal"`
	ParentGroupID string `json:"parent_group_id,omitempty"`
}

// TopLevelComponents filters out grouped children, ordered by ordinal.
// Callers get the components a list view would show at the top level.
func TopLevelComponents(components []Component) []Component {
	top := make([]Component, 0, len(components))
	for _, c := range components {
		if c.ParentGroupID == "" {
			top = append(top, c)
		}
	}
	for i := 1; i < len(top); i++ {
		for j := i; j > 0 && top[j].Ordinal < top[j-1].Ordinal; j-- {
			top[j], top[j-1] = top[j-1], top[j]
		}
	}
	return top
}

// Incident is a vendor incident normalized into the common schema.
type Incident struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Status       string           `json:"status"`
	Impact       Severity         `json:"impact"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	ExternalLink string           `json:"external_link,omitempty"`
	Updates      []IncidentUpdate `json:"updates"`
}

// IncidentUpdate is one entry in an incident's timeline.
type IncidentUpdate struct {
	Status    string    `json:"status"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceState is the mutable per-source record held by the aggregation
// engine. It is mutated only by the engine during a refresh of that source.
type SourceState struct {
	Summary         *Summary     `json:"summary,omitempty"`
	RecentIncidents []Incident   `json:"recent_incidents"`
	IsLoading       bool         `json:"is_loading"`
	LastError       string       `json:"last_error,omitempty"`
	LastRefresh     *time.Time   `json:"last_refresh,omitempty"`
	Provider        ProviderKind `json:"provider,omitempty"`
}

// Indicator returns the state's current severity, or SeverityUnknown when no
// summary has been recorded yet.
func (s *SourceState) Indicator() Severity {
	if s == nil || s.Summary == nil {
		return SeverityUnknown
	}
	return s.Summary.Indicator
}
