// Package practitioner provides the read-only practitioner directory and the
// composable candidate filter over it.
package practitioner

import (
	"errors"

	"github.com/caremap/caremap/pkg/geo"
)

// Sentinel errors for directory operations.
var (
	// ErrDirectoryUnavailable indicates the practitioner directory could not be read.
	ErrDirectoryUnavailable = errors.New("practitioner directory unavailable")
	// ErrNotFound indicates the requested practitioner is not in the directory.
	ErrNotFound = errors.New("practitioner not found")
)

// FilterAll is the wildcard value that disables a string-valued filter.
const FilterAll = "all"

// Practitioner is a directory entry. The directory is supplied by an external
// system; this service never writes back to it.
type Practitioner struct {
	ID              string
	Name            string
	Specialty       string
	City            string
	ExperienceYears int
	Languages       []string
	Verified        bool

	// Location is absent for practitioners that never supplied coordinates.
	// Entries without a location are not eligible for distance filtering or
	// routing.
	Location *geo.Coordinate
}

// HasLocation reports whether the practitioner has usable coordinates.
func (p *Practitioner) HasLocation() bool {
	return p.Location != nil
}

// FilterCriteria is the composable set of candidate filters. Zero-ish values
// ("all", 0) disable the corresponding predicate; the radius predicate is
// additionally inert while no user position exists.
type FilterCriteria struct {
	RadiusKm           float64
	Specialty          string
	City               string
	MinExperienceYears int
}

// DefaultCriteria returns the criteria used before any user input and after a
// reset.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		RadiusKm:           50,
		Specialty:          FilterAll,
		City:               FilterAll,
		MinExperienceYears: 0,
	}
}

// Validate reports the first violated constraint, or nil.
func (c FilterCriteria) Validate() error {
	if c.RadiusKm <= 0 {
		return errors.New("radius_km must be greater than zero")
	}
	if c.MinExperienceYears < 0 {
		return errors.New("min_experience must not be negative")
	}
	return nil
}

// Facets are the distinct filter choices present in the unfiltered pool,
// sorted ascending. They are projections for populating filter controls, not
// state.
type Facets struct {
	Specialties []string
	Cities      []string
}

// Match is a practitioner that passed the filter, annotated with the
// great-circle distance from the user position when one exists.
type Match struct {
	Practitioner
	DistanceMeters *float64
}

// SearchResult is the filtered view of the directory together with the
// projections the presentation layer renders alongside it.
type SearchResult struct {
	Matches       []Match
	Facets        Facets
	TotalCount    int
	FilteredCount int
}
