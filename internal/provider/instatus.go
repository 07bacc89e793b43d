package provider

import (
	"context"

	"github.com/alexnodeland/statusbar/internal/domain"
)

// instatusSummary is the Instatus-flavored summary.json wire shape. The page
// status is a coarse string, not an Atlassian indicator.
type instatusSummary struct {
	Page struct {
		Name   string `json:"name"`
		URL    string `json:"url"`
		Status string `json:"status"`
	} `json:"page"`
}

// instatusComponent nests children under parents; flattening preserves
// depth-first encounter order as the ordinal.
type instatusComponent struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Status      string              `json:"status"`
	Description string              `json:"description"`
	Children    []instatusComponent `json:"children"`
}

// InstatusAdapter fetches Instatus pages. Incident history is not available
// through the public API, so results never carry incidents.
type InstatusAdapter struct {
	client *Client
}

// NewInstatusAdapter creates the adapter.
func NewInstatusAdapter(client *Client) *InstatusAdapter {
	return &InstatusAdapter{client: client}
}

// Fetch implements Adapter.
func (a *InstatusAdapter) Fetch(ctx context.Context, baseURL string) (*Result, error) {
	var summary instatusSummary
	if err := a.client.GetJSON(ctx, baseURL+"/api/v2/summary.json", &summary); err != nil {
		return nil, err
	}

	// Components are best-effort: some pages disable the endpoint.
	var components []domain.Component
	var rawComponents []instatusComponent
	if err := a.client.GetJSON(ctx, baseURL+"/api/v2/components.json", &rawComponents); err == nil {
		ordinal := 0
		components = flattenInstatusComponents(rawComponents, "", &ordinal)
	}

	return &Result{
		Summary: &domain.Summary{
			PageName:    summary.Page.Name,
			PageURL:     summary.Page.URL,
			Indicator:   instatusIndicator(summary.Page.Status),
			Description: instatusDescription(summary.Page.Status),
			Components:  components,
		},
	}, nil
}

func flattenInstatusComponents(components []instatusComponent, parentID string, ordinal *int) []domain.Component {
	var out []domain.Component
	for _, c := range components {
		out = append(out, domain.Component{
			ID:            c.ID,
			Name:          c.Name,
			Status:        c.Status,
			Description:   c.Description,
			Ordinal:       *ordinal,
			ParentGroupID: parentID,
		})
		*ordinal++
		out = append(out, flattenInstatusComponents(c.Children, c.ID, ordinal)...)
	}
	return out
}

// instatusIndicator maps an Instatus page status to a severity. Anything
// unrecognized is treated as an outage rather than unknown: the page
// answered, so the data is trustworthy even if the vocabulary grew.
func instatusIndicator(status string) domain.Severity {
	switch status {
	case "UP":
		return domain.SeverityNone
	case "HASISSUES", "UNDERMAINTENANCE":
		return domain.SeverityMinor
	default:
		return domain.SeverityMajor
	}
}

func instatusDescription(status string) string {
	switch status {
	case "UP":
		return "All systems operational"
	case "UNDERMAINTENANCE":
		return "Under maintenance"
	case "HASISSUES":
		return "Experiencing issues"
	default:
		return "Service disruption"
	}
}
