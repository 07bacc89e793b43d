package sources

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/alexnodeland/statusbar/internal/domain"
)

// ErrNotFound is returned by Lookup for an unknown source ID.
var ErrNotFound = errors.New("source not found")

// Registry owns the configured source list. It assigns opaque IDs and keeps
// them stable across reloads as long as the source's URL is unchanged; a
// source that is removed and re-added gets a fresh identity.
type Registry struct {
	path string

	mu      sync.RWMutex
	sources []domain.Source
}

// NewRegistry creates a registry backed by the source list file at path.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// Load reads the source list file. A missing file yields an empty list, not
// an error, so a fresh install starts clean.
func (r *Registry) Load() error {
	_, _, err := r.Reload()
	return err
}

// Reload re-reads the source list file and reconciles it against the current
// list. It returns the sources that were added and removed so callers can
// reset per-source state and fire lifecycle hooks.
func (r *Registry) Reload() (added, removed []domain.Source, err error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			data = nil
		} else {
			return nil, nil, fmt.Errorf("read source list: %w", err)
		}
	}

	entries := Parse(string(data))

	r.mu.Lock()
	defer r.mu.Unlock()

	byURL := make(map[string]domain.Source, len(r.sources))
	for _, s := range r.sources {
		byURL[s.BaseURL] = s
	}

	next := make([]domain.Source, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.URL] {
			continue
		}
		seen[e.URL] = true

		if existing, ok := byURL[e.URL]; ok {
			// Keep identity; the name may have been edited.
			existing.Name = e.Name
			next = append(next, existing)
			continue
		}

		src := domain.NewSource(uuid.NewString(), e.Name, e.URL)
		next = append(next, src)
		added = append(added, src)
	}

	for _, s := range r.sources {
		if !seen[s.BaseURL] {
			removed = append(removed, s)
		}
	}

	r.sources = next
	return added, removed, nil
}

// List returns a snapshot of the configured sources in file order.
func (r *Registry) List() []domain.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Get looks up a source by ID.
func (r *Registry) Get(id string) (domain.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sources {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Source{}, false
}

// Lookup is Get with an error result for handlers that map domain errors to
// HTTP statuses.
func (r *Registry) Lookup(id string) (domain.Source, error) {
	if s, ok := r.Get(id); ok {
		return s, nil
	}
	return domain.Source{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}
