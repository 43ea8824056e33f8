package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/caremap/caremap/pkg/geo"
	"github.com/caremap/caremap/pkg/polyline"
)

// EstimateSecondsPerKm is the per-kilometre travel time assumed for
// straight-line estimates, roughly 30 km/h urban driving.
const EstimateSecondsPerKm = 120.0

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the routing data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service resolves routes and keeps a single active result. Concurrent
// resolutions race safely: the newest request wins, older results settle but
// are never installed as active.
type Service struct {
	provider Provider
	logger   zerolog.Logger

	mu      sync.RWMutex
	lastReq uint64
	active  *RouteResult
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Resolve computes a route from origin to destination. Provider failures are
// absorbed: the caller always receives a usable result, falling back to a
// straight-line estimate. The only error case is invalid input coordinates.
func (s *Service) Resolve(ctx context.Context, from, to geo.Coordinate) (*RouteResult, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("origin: %w", ErrInvalidCoordinates)
	}
	if !to.Valid() {
		return nil, fmt.Errorf("destination: %w", ErrInvalidCoordinates)
	}

	s.mu.Lock()
	s.lastReq++
	reqID := s.lastReq
	s.mu.Unlock()

	result, err := s.provider.Route(ctx, from, to)
	if err != nil {
		s.logProviderFailure(err, from, to)
		result = s.estimate(from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if reqID != s.lastReq {
		// A newer request was issued while this one was in flight.
		s.logger.Debug().
			Uint64("request_id", reqID).
			Uint64("latest_request_id", s.lastReq).
			Msg("discarding superseded route result")
		return result, nil
	}

	s.active = result

	s.logger.Info().
		Str("source", string(result.Source)).
		Float64("distance_m", result.DistanceMeters).
		Float64("duration_s", result.DurationSeconds).
		Int("steps", len(result.Steps)).
		Msg("route resolved")

	return result, nil
}

// Active returns the currently active route result, or nil when none is set.
func (s *Service) Active() *RouteResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return nil
	}
	cpy := *s.active
	return &cpy
}

// Clear drops the active route without issuing a request. In-flight
// resolutions started before the clear will not reinstall their result.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReq++
	s.active = nil
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// estimate synthesizes a straight-line route when the provider cannot serve.
func (s *Service) estimate(from, to geo.Coordinate) *RouteResult {
	geometry := []geo.Coordinate{from, to}
	distance := geo.DistanceMeters(from, to)
	duration := distance / 1000 * EstimateSecondsPerKm
	direction := geo.CompassDirection(geo.Bearing(from, to))

	return &RouteResult{
		Source:          SourceEstimated,
		Geometry:        geometry,
		Polyline:        polyline.Encode(geometry),
		DistanceMeters:  distance,
		DurationSeconds: duration,
		Steps: []Step{
			{
				Instruction:     "Head " + direction + " to destination",
				DistanceMeters:  distance,
				DurationSeconds: duration,
			},
		},
		From:       from,
		To:         to,
		ComputedAt: time.Now(),
	}
}

func (s *Service) logProviderFailure(err error, from, to geo.Coordinate) {
	evt := s.logger.Warn().Err(err).
		Str("provider", s.provider.Name()).
		Float64("from_lat", from.Lat).
		Float64("from_lon", from.Lon).
		Float64("to_lat", to.Lat).
		Float64("to_lon", to.Lon)

	switch {
	case errors.Is(err, ErrNoRouteFound):
		evt.Msg("no route found, falling back to straight-line estimate")
	case errors.Is(err, ErrMalformedResponse):
		evt.Msg("unreadable routing response, falling back to straight-line estimate")
	default:
		evt.Msg("routing provider unreachable, falling back to straight-line estimate")
	}
}

// MapsLink builds a Google Maps driving directions deep link for hand-off to
// an external map application.
func MapsLink(from, to geo.Coordinate) string {
	return fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&origin=%.6f,%.6f&destination=%.6f,%.6f&travelmode=driving",
		from.Lat, from.Lon, to.Lat, to.Lon,
	)
}
