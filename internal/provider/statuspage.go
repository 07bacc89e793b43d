package provider

import (
	"context"
	"sync"
	"time"

	"github.com/alexnodeland/statusbar/internal/domain"
)

// statuspageSummary is the Atlassian Statuspage summary.json wire shape.
// The incident.io compatibility layer serves the same document minus a few
// page fields.
type statuspageSummary struct {
	Page struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		TimeZone string `json:"time_zone"`
	} `json:"page"`
	Status struct {
		Indicator   string `json:"indicator"`
		Description string `json:"description"`
	} `json:"status"`
	Components []statuspageComponent `json:"components"`
	Incidents  []statuspageIncident  `json:"incidents"`
}

type statuspageComponent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Position    int    `json:"position"`
	GroupID     string `json:"group_id"`
}

type statuspageIncident struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Impact    string    `json:"impact"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Shortlink string    `json:"shortlink"`
	Updates   []struct {
		Status    string    `json:"status"`
		Body      string    `json:"body"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"incident_updates"`
}

type statuspageIncidents struct {
	Incidents []statuspageIncident `json:"incidents"`
}

// StatuspageAdapter fetches Atlassian Statuspage and incident.io
// compatibility sources. The summary and the incident history are requested
// concurrently; the summary alone is enough for a usable result, so an
// incident-history failure degrades to the summary's active incidents.
type StatuspageAdapter struct {
	client *Client
}

// NewStatuspageAdapter creates the adapter.
func NewStatuspageAdapter(client *Client) *StatuspageAdapter {
	return &StatuspageAdapter{client: client}
}

// Fetch implements Adapter.
func (a *StatuspageAdapter) Fetch(ctx context.Context, baseURL string) (*Result, error) {
	var (
		wg         sync.WaitGroup
		summary    statuspageSummary
		history    statuspageIncidents
		summaryErr error
		historyErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		summaryErr = a.client.GetJSON(ctx, baseURL+"/api/v2/summary.json", &summary)
	}()
	go func() {
		defer wg.Done()
		historyErr = a.client.GetJSON(ctx, baseURL+"/api/v2/incidents.json", &history)
	}()
	wg.Wait()

	if summaryErr != nil {
		return nil, summaryErr
	}

	components := make([]domain.Component, 0, len(summary.Components))
	for i, c := range summary.Components {
		ordinal := c.Position
		if ordinal == 0 {
			ordinal = i
		}
		components = append(components, domain.Component{
			ID:            c.ID,
			Name:          c.Name,
			Status:        c.Status,
			Description:   c.Description,
			Ordinal:       ordinal,
			ParentGroupID: c.GroupID,
		})
	}

	active := mapStatuspageIncidents(summary.Incidents)

	recent := active
	if historyErr == nil {
		recent = mapStatuspageIncidents(history.Incidents)
	}

	return &Result{
		Summary: &domain.Summary{
			PageName:        summary.Page.Name,
			PageURL:         summary.Page.URL,
			Indicator:       domain.ParseIndicator(summary.Status.Indicator),
			Description:     summary.Status.Description,
			Components:      components,
			ActiveIncidents: active,
		},
		RecentIncidents: recent,
	}, nil
}

func mapStatuspageIncidents(incidents []statuspageIncident) []domain.Incident {
	out := make([]domain.Incident, 0, len(incidents))
	for _, inc := range incidents {
		updates := make([]domain.IncidentUpdate, 0, len(inc.Updates))
		for _, u := range inc.Updates {
			updates = append(updates, domain.IncidentUpdate{
				Status:    u.Status,
				Body:      u.Body,
				CreatedAt: u.CreatedAt,
			})
		}
		out = append(out, domain.Incident{
			ID:           inc.ID,
			Title:        inc.Name,
			Status:       inc.Status,
			Impact:       domain.ParseIndicator(inc.Impact),
			CreatedAt:    inc.CreatedAt,
			UpdatedAt:    inc.UpdatedAt,
			ExternalLink: inc.Shortlink,
			Updates:      updates,
		})
	}
	return out
}
