// Package routing resolves driving routes between a visitor position and a
// practitioner, with a straight-line estimate when the provider is down.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/caremap/caremap/pkg/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrServiceUnreachable indicates the routing provider is down or the circuit breaker is open.
	ErrServiceUnreachable = errors.New("routing service unreachable")
	// ErrMalformedResponse indicates the provider returned a payload that could not be decoded.
	ErrMalformedResponse = errors.New("malformed routing response")
	// ErrNoRouteFound indicates no drivable route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// Route retrieves driving directions between two points.
	Route(ctx context.Context, from, to geo.Coordinate) (*RouteResult, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// RouteSource indicates how a route result was produced.
type RouteSource string

const (
	// SourceRouted marks a result computed by the routing provider.
	SourceRouted RouteSource = "routed"
	// SourceEstimated marks a straight-line estimate used when the provider fails.
	SourceEstimated RouteSource = "estimated"
)

// RouteResult is a resolved route between two points.
type RouteResult struct {
	// Source tells whether the result is provider-routed or estimated.
	Source RouteSource

	// Geometry is the route path in travel order.
	Geometry []geo.Coordinate

	// Polyline is the geometry encoded at precision 5.
	Polyline string

	// DistanceMeters is the total travel distance.
	DistanceMeters float64

	// DurationSeconds is the total travel time in seconds.
	DurationSeconds float64

	// Steps are the turn-by-turn instructions in travel order.
	Steps []Step

	// From and To are the requested endpoints.
	From geo.Coordinate
	To   geo.Coordinate

	// ComputedAt is when the result was produced.
	ComputedAt time.Time
}

// Estimated reports whether the result is a straight-line estimate.
func (r *RouteResult) Estimated() bool {
	return r.Source == SourceEstimated
}

// Step is a single turn-by-turn instruction.
type Step struct {
	Instruction     string
	DistanceMeters  float64
	DurationSeconds float64
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
