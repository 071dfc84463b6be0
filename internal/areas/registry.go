// Package areas holds the static race-area registry. The default set is the
// championship course layout off Scheveningen, embedded at build time; an
// operator can swap it with AREAS_FILE without rebuilding.
package areas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
)

//go:embed areas.json
var embeddedAreas []byte

// Registry is the immutable set of race areas, keyed by area key.
type Registry struct {
	areas map[string]domain.RaceArea
	order []string
}

// Load builds the registry from the embedded course layout, or from the
// JSON file at path when path is non-empty.
func Load(path string) (*Registry, error) {
	data := embeddedAreas
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read areas file: %w", err)
		}
		data = b
	}
	return parse(data)
}

func parse(data []byte) (*Registry, error) {
	var list []domain.RaceArea
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse areas: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no race areas defined")
	}

	r := &Registry{
		areas: make(map[string]domain.RaceArea, len(list)),
		order: make([]string, 0, len(list)),
	}
	for _, a := range list {
		if a.Key == "" {
			return nil, fmt.Errorf("race area %q has no key", a.Name)
		}
		if _, dup := r.areas[a.Key]; dup {
			return nil, fmt.Errorf("duplicate race area key %q", a.Key)
		}
		if a.Lat < -90 || a.Lat > 90 || a.Lon < -180 || a.Lon > 180 {
			return nil, fmt.Errorf("race area %q: coordinates out of range", a.Key)
		}
		r.areas[a.Key] = a
		r.order = append(r.order, a.Key)
	}
	return r, nil
}

// Get returns the area registered under key.
func (r *Registry) Get(key string) (domain.RaceArea, bool) {
	a, ok := r.areas[key]
	return a, ok
}

// All returns every registered area in definition order.
func (r *Registry) All() []domain.RaceArea {
	out := make([]domain.RaceArea, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.areas[key])
	}
	return out
}

// Len returns the number of registered areas.
func (r *Registry) Len() int {
	return len(r.order)
}
