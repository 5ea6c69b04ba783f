// Package registry provides the immutable location registry and the
// sources it can be loaded from.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/hervehildenbrand/saferoute/pkg/models"
)

var (
	// ErrEmptyRegistry is returned when a source yields no records.
	ErrEmptyRegistry = errors.New("registry: no locations loaded")
	// ErrDuplicateName is returned when two records share a name.
	ErrDuplicateName = errors.New("registry: duplicate location name")
)

var validate = validator.New()

// Registry maps location names to their records, preserving load order.
// It is never modified after construction and is safe for concurrent use.
type Registry struct {
	records []models.LocationRecord
	index   map[string]int
}

// New validates records and builds a registry from them.
func New(records []models.LocationRecord) (*Registry, error) {
	if len(records) == 0 {
		return nil, ErrEmptyRegistry
	}

	r := &Registry{
		records: make([]models.LocationRecord, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for i, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("registry: record %d (%q): %w", i, rec.Name, err)
		}
		if _, dup := r.index[rec.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, rec.Name)
		}
		r.index[rec.Name] = len(r.records)
		r.records = append(r.records, rec)
	}
	return r, nil
}

// Load reads every record from src and builds a registry.
func Load(ctx context.Context, src Source) (*Registry, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading locations from %s: %w", src.Describe(), err)
	}
	r, err := New(records)
	if err != nil {
		return nil, err
	}
	slog.Info("location registry loaded", "component", "registry", "source", src.Describe(), "locations", r.Len())
	return r, nil
}

// Lookup returns the record with exactly this name.
func (r *Registry) Lookup(name string) (models.LocationRecord, bool) {
	i, ok := r.index[name]
	if !ok {
		return models.LocationRecord{}, false
	}
	return r.records[i], true
}

// Names returns every location name in load order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.records))
	for i, rec := range r.records {
		names[i] = rec.Name
	}
	return names
}

// Records returns a copy of every record in load order.
func (r *Registry) Records() []models.LocationRecord {
	out := make([]models.LocationRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of locations.
func (r *Registry) Len() int {
	return len(r.records)
}

// Summary lists every location with its headline attributes.
func (r *Registry) Summary() models.LocationSummary {
	s := models.LocationSummary{
		Total:     len(r.records),
		Locations: make([]models.LocationOverview, len(r.records)),
	}
	for i, rec := range r.records {
		s.Locations[i] = models.LocationOverview{
			Name:               rec.Name,
			SafetyLevel:        rec.SafetyLevel,
			CrimeDensity:       rec.CrimeDensity,
			IncidentsLastMonth: rec.IncidentsLastMonth,
		}
	}
	return s
}
