package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexnodeland/statusbar/internal/domain"
	"github.com/alexnodeland/statusbar/internal/testutil"
)

func TestInstatusAdapterFetch(t *testing.T) {
	server := testutil.NewVendorServer(t, map[string]string{
		"/api/v2/summary.json":    testutil.InstatusSummary("UP"),
		"/api/v2/components.json": testutil.InstatusComponents,
	})

	adapter := NewInstatusAdapter(testClient())
	result, err := adapter.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Instatus Example", result.Summary.PageName)
	assert.Equal(t, domain.SeverityNone, result.Summary.Indicator)
	assert.Empty(t, result.RecentIncidents)
	assert.Empty(t, result.Summary.ActiveIncidents)

	// Depth-first flatten: Platform, API, Dashboard, CDN.
	require.Len(t, result.Summary.Components, 4)
	assert.Equal(t, []string{"Platform", "API", "Dashboard", "CDN"}, componentNames(result.Summary.Components))
	assert.Equal(t, []int{0, 1, 2, 3}, componentOrdinals(result.Summary.Components))
	assert.Equal(t, "p1", result.Summary.Components[1].ParentGroupID)
	assert.Equal(t, "", result.Summary.Components[3].ParentGroupID)
}

func TestInstatusAdapterComponentsBestEffort(t *testing.T) {
	server := testutil.NewVendorServer(t, map[string]string{
		"/api/v2/summary.json": testutil.InstatusSummary("HASISSUES"),
	})

	adapter := NewInstatusAdapter(testClient())
	result, err := adapter.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, domain.SeverityMinor, result.Summary.Indicator)
	assert.Empty(t, result.Summary.Components)
}

func TestInstatusIndicator(t *testing.T) {
	tests := []struct {
		status string
		want   domain.Severity
	}{
		{"UP", domain.SeverityNone},
		{"HASISSUES", domain.SeverityMinor},
		{"UNDERMAINTENANCE", domain.SeverityMinor},
		{"MAJOROUTAGE", domain.SeverityMajor},
		{"", domain.SeverityMajor},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, instatusIndicator(tt.status))
		})
	}
}

func componentNames(components []domain.Component) []string {
	names := make([]string, len(components))
	for i, c := range components {
		names[i] = c.Name
	}
	return names
}

func componentOrdinals(components []domain.Component) []int {
	ordinals := make([]int, len(components))
	for i, c := range components {
		ordinals[i] = c.Ordinal
	}
	return ordinals
}
