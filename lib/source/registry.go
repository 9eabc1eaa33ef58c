package source

import (
	"fmt"
	"strings"
)

// Registry is the closed set of sources. It is built once at startup and
// never modified.
type Registry struct {
	ordered []Source
	byID    map[string]Source
}

// NewRegistry returns every scraped source plus wh.
func NewRegistry(wh *Wallhaven) *Registry {
	return newRegistry(
		NewBing(),
		NewUnsplash(),
		NewNASA(),
		NewAPOD(),
		NewEarthObservatory(),
		NewEPOD(),
		NewNationalGeographic(),
		wh,
	)
}

func newRegistry(sources ...Source) *Registry {
	r := &Registry{byID: make(map[string]Source, len(sources))}
	for _, s := range sources {
		r.ordered = append(r.ordered, s)
		r.byID[s.ID()] = s
	}
	return r
}

// Lookup returns the source registered as id.
func (r *Registry) Lookup(id string) (Source, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownSource, id, strings.Join(r.IDs(), ", "))
	}
	return s, nil
}

// IDs lists every source identifier in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.ordered))
	for _, s := range r.ordered {
		ids = append(ids, s.ID())
	}
	return ids
}

// Sources lists every source in registration order.
func (r *Registry) Sources() []Source {
	return append([]Source(nil), r.ordered...)
}

// Scrapable lists the sources a random pick may choose: those that need no
// credentials.
func (r *Registry) Scrapable() []string {
	var ids []string
	for _, s := range r.ordered {
		if _, ok := s.(Scraper); ok {
			ids = append(ids, s.ID())
		}
	}
	return ids
}
