package practitioner

import (
	"sort"

	"github.com/caremap/caremap/pkg/geo"
)

// Filter applies the criteria to the pool as a conjunction of independent
// predicates and returns the order-preserving subsequence that passes all of
// them. It is pure: identical inputs yield identical output, element order
// included.
//
// The radius predicate is skipped entirely when origin is nil. While it is
// active, practitioners without a location are excluded up front.
func Filter(pool []Practitioner, origin *geo.Coordinate, criteria FilterCriteria) []Practitioner {
	filtered := make([]Practitioner, 0, len(pool))

	for _, p := range pool {
		if origin != nil {
			if !p.HasLocation() {
				continue
			}
			if geo.DistanceMeters(*origin, *p.Location) > criteria.RadiusKm*1000 {
				continue
			}
		}
		if criteria.Specialty != FilterAll && p.Specialty != criteria.Specialty {
			continue
		}
		if criteria.City != FilterAll && p.City != criteria.City {
			continue
		}
		if criteria.MinExperienceYears > 0 && p.ExperienceYears < criteria.MinExperienceYears {
			continue
		}
		filtered = append(filtered, p)
	}

	return filtered
}

// PoolFacets returns the distinct sorted specialties and cities present in
// the unfiltered pool.
func PoolFacets(pool []Practitioner) Facets {
	specialties := make(map[string]struct{}, len(pool))
	cities := make(map[string]struct{}, len(pool))

	for _, p := range pool {
		if p.Specialty != "" {
			specialties[p.Specialty] = struct{}{}
		}
		if p.City != "" {
			cities[p.City] = struct{}{}
		}
	}

	return Facets{
		Specialties: sortedKeys(specialties),
		Cities:      sortedKeys(cities),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
