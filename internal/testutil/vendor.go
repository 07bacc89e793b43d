// Package testutil provides fake vendor status-page servers for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// VendorServer serves canned vendor API responses keyed by path.
type VendorServer struct {
	*httptest.Server

	routes map[string]string
}

// NewVendorServer starts a server that answers the given path -> JSON body
// routes with 200 and everything else with 404. It is shut down with the
// test.
func NewVendorServer(t *testing.T, routes map[string]string) *VendorServer {
	t.Helper()

	vs := &VendorServer{routes: routes}
	vs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := vs.routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(vs.Close)
	return vs
}

// StatuspageSummary renders an Atlassian-shaped summary.json. When withTZ is
// false the page block omits time_zone, which is how the incident.io
// compatibility layer presents itself.
func StatuspageSummary(indicator, description string, withTZ bool) string {
	tz := ""
	if withTZ {
		tz = `"time_zone": "Etc/UTC",`
	}
	return fmt.Sprintf(`{
		"page": {%s "name": "Example", "url": "https://status.example.com"},
		"status": {"indicator": %q, "description": %q},
		"components": [
			{"id": "c1", "name": "API", "status": "operational", "position": 1},
			{"id": "c2", "name": "Web", "status": "degraded_performance", "position": 2},
			{"id": "c3", "name": "Worker", "status": "operational", "position": 3, "group_id": "c1"}
		],
		"incidents": []
	}`, tz, indicator, description)
}

// StatuspageIncidents renders an incidents.json history with one resolved
// and one active incident.
const StatuspageIncidents = `{
	"incidents": [
		{
			"id": "inc1", "name": "Elevated error rates", "status": "investigating",
			"impact": "major", "shortlink": "https://stspg.io/abc",
			"created_at": "2026-08-30T10:00:00Z", "updated_at": "2026-08-30T11:00:00Z",
			"incident_updates": [
				{"status": "investigating", "body": "We are looking into it", "created_at": "2026-08-30T10:00:00Z"}
			]
		},
		{
			"id": "inc0", "name": "Past outage", "status": "resolved",
			"impact": "minor",
			"created_at": "2026-08-01T00:00:00Z", "updated_at": "2026-08-01T02:00:00Z",
			"incident_updates": []
		}
	]
}`

// InstatusSummary renders an Instatus-shaped summary.json.
func InstatusSummary(status string) string {
	return fmt.Sprintf(`{
		"page": {"name": "Instatus Example", "url": "https://example.instatus.com", "status": %q}
	}`, status)
}

// InstatusComponents is a nested components.json listing.
const InstatusComponents = `[
	{"id": "p1", "name": "Platform", "status": "OPERATIONAL", "children": [
		{"id": "p1a", "name": "API", "status": "OPERATIONAL"},
		{"id": "p1b", "name": "Dashboard", "status": "HASISSUES"}
	]},
	{"id": "p2", "name": "CDN", "status": "OPERATIONAL"}
]`

// IncidentIOWidget renders a proxy/widget document with the given ongoing
// incident statuses.
func IncidentIOWidget(statuses ...string) string {
	incidents := ""
	for i, s := range statuses {
		if i > 0 {
			incidents += ","
		}
		incidents += fmt.Sprintf(`{
			"id": "w%d", "name": "Incident %d", "status": %q,
			"url": "https://status.example.com/incidents/w%d",
			"last_update_message": "Latest word on incident %d",
			"last_update_at": "2026-08-30T12:00:00Z",
			"created_at": "2026-08-30T09:00:00Z"
		}`, i, i, s, i, i)
	}
	return fmt.Sprintf(`{
		"summary": {"name": "Widget Example", "url": "https://status.example.com"},
		"ongoing_incidents": [%s],
		"in_progress_maintenances": [],
		"scheduled_maintenances": []
	}`, incidents)
}
