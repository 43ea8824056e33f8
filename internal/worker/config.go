// Package worker provides background job processing for CareMap.
package worker

import (
	"time"
)

// RefreshTarget represents a geographic region to probe.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to probe.
	// Typically the centers of metro areas with a dense practitioner pool.
	Points []Point

	// Priority determines probe order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// RefreshConfig holds configuration for the directory refresh job.
type RefreshConfig struct {
	// Targets are the geographic regions to probe.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent probe operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each probe operation.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshDirectory enables practitioner directory snapshot refresh.
	// Default: true
	RefreshDirectory bool

	// ProbeRouting enables routing provider reachability probes.
	// Default: true
	ProbeRouting bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:          DefaultRefreshTargets(),
		Concurrency:      3,
		Timeout:          30 * time.Second,
		RefreshDirectory: true,
		ProbeRouting:     true,
	}
}

// DefaultRefreshTargets returns the default probe targets for India.
// Focuses on the metros where the practitioner directory is densest.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "Mumbai",
			Priority: 1,
			Points: []Point{
				{Lat: 19.0760, Lon: 72.8777}, // South Mumbai
				{Lat: 19.1136, Lon: 72.8697}, // Andheri
				{Lat: 19.0178, Lon: 72.8478}, // Dadar
				{Lat: 19.2183, Lon: 72.9781}, // Thane
			},
		},
		{
			Name:     "Delhi",
			Priority: 1,
			Points: []Point{
				{Lat: 28.6139, Lon: 77.2090}, // Connaught Place
				{Lat: 28.5494, Lon: 77.2001}, // Saket
				{Lat: 28.6692, Lon: 77.4538}, // Ghaziabad
			},
		},
		{
			Name:     "Bengaluru",
			Priority: 1,
			Points: []Point{
				{Lat: 12.9716, Lon: 77.5946}, // MG Road
				{Lat: 12.9352, Lon: 77.6245}, // Koramangala
				{Lat: 13.0358, Lon: 77.5970}, // Hebbal
			},
		},
		{
			Name:     "Chennai",
			Priority: 1,
			Points: []Point{
				{Lat: 13.0827, Lon: 80.2707}, // Egmore
				{Lat: 12.9812, Lon: 80.2180}, // Velachery
			},
		},
		{
			Name:     "Hyderabad",
			Priority: 2,
			Points: []Point{
				{Lat: 17.3850, Lon: 78.4867}, // Abids
				{Lat: 17.4435, Lon: 78.3772}, // HITEC City
			},
		},
		{
			Name:     "Pune",
			Priority: 2,
			Points: []Point{
				{Lat: 18.5204, Lon: 73.8567}, // Shivajinagar
			},
		},
		{
			Name:     "Kolkata",
			Priority: 3,
			Points: []Point{
				{Lat: 22.5726, Lon: 88.3639}, // Esplanade
			},
		},
		{
			Name:     "Ahmedabad",
			Priority: 3,
			Points: []Point{
				{Lat: 23.0225, Lon: 72.5714}, // Navrangpura
			},
		},
		{
			Name:     "Jaipur",
			Priority: 3,
			Points: []Point{
				{Lat: 26.9124, Lon: 75.7873}, // Pink City
			},
		},
		{
			Name:     "Kochi",
			Priority: 3,
			Points: []Point{
				{Lat: 9.9312, Lon: 76.2673}, // Ernakulam
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c RefreshConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to probe.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
