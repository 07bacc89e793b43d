package provider

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/alexnodeland/statusbar/internal/domain"
)

// detectorProbe is a loose decode of summary.json used only for
// classification. Pointer fields distinguish absent keys from zero values.
type detectorProbe struct {
	Page struct {
		TimeZone *string `json:"time_zone"`
		Status   string  `json:"status"`
	} `json:"page"`
	Status *struct {
		Indicator string `json:"indicator"`
	} `json:"status"`
}

// Detector classifies sources into provider kinds. Classification runs once
// per source and is cached; a failed fetch with a cached kind invalidates the
// entry so the next refresh re-detects. Detection itself never fails: the
// native incident.io adapter is the catch-all since its endpoint shares
// nothing with the probed one.
type Detector struct {
	client *Client

	statuspage *StatuspageAdapter
	incidentio *IncidentIOAdapter
	instatus   *InstatusAdapter

	mu    sync.Mutex
	cache map[string]domain.ProviderKind
}

// NewDetector creates a detector with its adapter set.
func NewDetector(client *Client) *Detector {
	return &Detector{
		client:     client,
		statuspage: NewStatuspageAdapter(client),
		incidentio: NewIncidentIOAdapter(client),
		instatus:   NewInstatusAdapter(client),
		cache:      make(map[string]domain.ProviderKind),
	}
}

// Resolve returns the provider kind for the source, probing and caching it
// on first use.
func (d *Detector) Resolve(ctx context.Context, source domain.Source) domain.ProviderKind {
	d.mu.Lock()
	kind, ok := d.cache[source.ID]
	d.mu.Unlock()
	if ok {
		return kind
	}

	kind = d.detect(ctx, source.BaseURL)

	d.mu.Lock()
	d.cache[source.ID] = kind
	d.mu.Unlock()
	return kind
}

// AdapterFor maps a provider kind to its adapter. The Atlassian adapter
// serves the incident.io compatibility layer too; that split only matters to
// presentation.
func (d *Detector) AdapterFor(kind domain.ProviderKind) Adapter {
	switch kind {
	case domain.ProviderStatuspage, domain.ProviderIncidentIOCompat:
		return d.statuspage
	case domain.ProviderInstatus:
		return d.instatus
	default:
		return d.incidentio
	}
}

// Invalidate drops the cached classification so the next refresh re-detects.
// Handles misclassified or migrated status pages.
func (d *Detector) Invalidate(sourceID string) {
	d.mu.Lock()
	delete(d.cache, sourceID)
	d.mu.Unlock()
}

// Cached returns the cached kind for a source, if any. Exposed for tests.
func (d *Detector) Cached(sourceID string) (domain.ProviderKind, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kind, ok := d.cache[sourceID]
	return kind, ok
}

func (d *Detector) detect(ctx context.Context, baseURL string) domain.ProviderKind {
	body, err := d.client.Get(ctx, baseURL+"/api/v2/summary.json")
	if err != nil {
		return domain.ProviderIncidentIO
	}

	var probe detectorProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return domain.ProviderIncidentIO
	}

	if probe.Status != nil && probe.Status.Indicator != "" {
		if probe.Page.TimeZone != nil {
			return domain.ProviderStatuspage
		}
		return domain.ProviderIncidentIOCompat
	}

	if probe.Page.Status != "" {
		return domain.ProviderInstatus
	}

	return domain.ProviderIncidentIO
}
