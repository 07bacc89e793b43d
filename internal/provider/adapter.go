package provider

import (
	"context"

	"github.com/alexnodeland/statusbar/internal/domain"
)

// Result is a normalized fetch outcome. RecentIncidents may extend past the
// summary's active incidents for vendors that expose full history.
type Result struct {
	Summary         *domain.Summary
	RecentIncidents []domain.Incident
}

// Adapter fetches one vendor API family and maps it into the common schema.
// Implementations never leak vendor status strings into severities.
type Adapter interface {
	Fetch(ctx context.Context, baseURL string) (*Result, error)
}
