package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/alexnodeland/statusbar/internal/domain"
)

// incidentioWidget is the native incident.io proxy/widget wire shape. The
// widget is coarse: ongoing incidents and maintenances with at most a last
// update message, no structured timeline.
type incidentioWidget struct {
	OngoingIncidents       []incidentioIncident `json:"ongoing_incidents"`
	InProgressMaintenances []incidentioIncident `json:"in_progress_maintenances"`
	ScheduledMaintenances  []incidentioIncident `json:"scheduled_maintenances"`
	Summary                struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"summary"`
}

type incidentioIncident struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Status            string     `json:"status"`
	URL               string     `json:"url"`
	LastUpdateMessage string     `json:"last_update_message"`
	LastUpdateAt      *time.Time `json:"last_update_at"`
	CreatedAt         *time.Time `json:"created_at"`
}

// IncidentIOAdapter fetches native incident.io status pages via the widget
// endpoint. It is also the detector's catch-all: the endpoint requires no
// prior schema match.
type IncidentIOAdapter struct {
	client *Client
}

// NewIncidentIOAdapter creates the adapter.
func NewIncidentIOAdapter(client *Client) *IncidentIOAdapter {
	return &IncidentIOAdapter{client: client}
}

// Fetch implements Adapter.
func (a *IncidentIOAdapter) Fetch(ctx context.Context, baseURL string) (*Result, error) {
	var widget incidentioWidget
	if err := a.client.GetJSON(ctx, baseURL+"/proxy/widget", &widget); err != nil {
		return nil, err
	}

	raw := make([]incidentioIncident, 0,
		len(widget.OngoingIncidents)+len(widget.InProgressMaintenances)+len(widget.ScheduledMaintenances))
	raw = append(raw, widget.OngoingIncidents...)
	raw = append(raw, widget.InProgressMaintenances...)
	raw = append(raw, widget.ScheduledMaintenances...)

	incidents := make([]domain.Incident, 0, len(raw))
	for _, inc := range raw {
		mapped := domain.Incident{
			ID:           inc.ID,
			Title:        inc.Name,
			Status:       inc.Status,
			Impact:       incidentioImpact(inc.Status),
			ExternalLink: inc.URL,
		}
		if inc.CreatedAt != nil {
			mapped.CreatedAt = *inc.CreatedAt
		}
		if inc.LastUpdateAt != nil {
			mapped.UpdatedAt = *inc.LastUpdateAt
		}
		// The widget only carries the latest message; surface it as a
		// single synthetic update so the detail view is not empty.
		if inc.LastUpdateMessage != "" {
			mapped.Updates = []domain.IncidentUpdate{{
				Status:    inc.Status,
				Body:      inc.LastUpdateMessage,
				CreatedAt: mapped.UpdatedAt,
			}}
		}
		incidents = append(incidents, mapped)
	}

	indicator := domain.SeverityNone
	if len(incidents) > 0 {
		indicator = domain.SeverityMinor
		for _, inc := range incidents {
			if inc.Status == "investigating" || inc.Status == "identified" {
				indicator = domain.SeverityMajor
				break
			}
		}
	}

	description := "All systems operational"
	if n := len(incidents); n == 1 {
		description = "1 active incident"
	} else if n > 1 {
		description = fmt.Sprintf("%d active incidents", n)
	}

	pageURL := widget.Summary.URL
	if pageURL == "" {
		pageURL = baseURL
	}

	return &Result{
		Summary: &domain.Summary{
			PageName:        widget.Summary.Name,
			PageURL:         pageURL,
			Indicator:       indicator,
			Description:     description,
			ActiveIncidents: incidents,
		},
		RecentIncidents: incidents,
	}, nil
}

// incidentioImpact infers a severity from an incident.io status string.
func incidentioImpact(status string) domain.Severity {
	switch status {
	case "investigating", "identified":
		return domain.SeverityMajor
	case "monitoring":
		return domain.SeverityMinor
	case "resolved", "postmortem":
		return domain.SeverityNone
	default:
		return domain.SeverityMinor
	}
}
