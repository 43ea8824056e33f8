package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caremap/caremap/internal/api/models"
	"github.com/caremap/caremap/internal/api/response"
	"github.com/caremap/caremap/internal/location"
	"github.com/caremap/caremap/internal/practitioner"
	"github.com/caremap/caremap/internal/routing"
	"github.com/caremap/caremap/pkg/geo"
)

// RouteHandler handles routing endpoints.
type RouteHandler struct {
	routes        *routing.Service
	practitioners *practitioner.Service
	locations     *location.Service
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routes *routing.Service, practitioners *practitioner.Service, locations *location.Service) *RouteHandler {
	return &RouteHandler{
		routes:        routes,
		practitioners: practitioners,
		locations:     locations,
	}
}

// ComputeRoute handles POST /v1/routes:compute - resolve a route to a practitioner.
func (h *RouteHandler) ComputeRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	from, fieldErr := h.resolveOrigin(input)
	if fieldErr != nil {
		response.BadRequest(w, r, "no usable origin position", []models.FieldError{*fieldErr})
		return
	}

	to, err := h.resolveDestination(r, input)
	if err != nil {
		if errors.Is(err, practitioner.ErrNotFound) {
			response.NotFound(w, r, "practitioner not found")
			return
		}
		if errors.Is(err, practitioner.ErrDirectoryUnavailable) {
			response.ServiceUnavailable(w, r, "practitioner directory is temporarily unavailable")
			return
		}
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	result, err := h.routes.Resolve(r.Context(), from, to)
	if err != nil {
		response.BadRequest(w, r, "origin or destination coordinates are out of range", nil)
		return
	}

	response.JSON(w, r, http.StatusOK, toRouteResponse(result))
}

// ActiveRoute handles GET /v1/routes/active - the current route, if any.
func (h *RouteHandler) ActiveRoute(w http.ResponseWriter, r *http.Request) {
	result := h.routes.Active()
	if result == nil {
		response.NotFound(w, r, "no active route")
		return
	}

	response.JSON(w, r, http.StatusOK, toRouteResponse(result))
}

// ClearRoute handles DELETE /v1/routes/active - drop the current route.
func (h *RouteHandler) ClearRoute(w http.ResponseWriter, r *http.Request) {
	h.routes.Clear()
	response.NoContent(w, r)
}

// resolveOrigin picks the explicit origin from the request, falling back to
// the acquired visitor position.
func (h *RouteHandler) resolveOrigin(input models.RouteComputeRequest) (geo.Coordinate, *models.FieldError) {
	if input.Origin != nil {
		return geo.Coordinate{Lat: input.Origin.Lat, Lon: input.Origin.Lon}, nil
	}

	if h.locations != nil {
		if sample := h.locations.Current(); sample != nil {
			return sample.Coordinate, nil
		}
	}

	return geo.Coordinate{}, &models.FieldError{
		Field:   "origin",
		Message: "required when no position has been acquired",
	}
}

// resolveDestination picks the explicit destination or looks up the
// practitioner's location.
func (h *RouteHandler) resolveDestination(r *http.Request, input models.RouteComputeRequest) (geo.Coordinate, error) {
	if input.Destination != nil {
		return geo.Coordinate{Lat: input.Destination.Lat, Lon: input.Destination.Lon}, nil
	}

	if input.PractitionerID == nil {
		return geo.Coordinate{}, errors.New("either destination or practitionerId is required")
	}

	p, err := h.practitioners.Get(r.Context(), *input.PractitionerID)
	if err != nil {
		return geo.Coordinate{}, err
	}
	if !p.HasLocation() {
		return geo.Coordinate{}, errors.New("practitioner has no published location")
	}

	return *p.Location, nil
}

func toRouteResponse(result *routing.RouteResult) models.RouteResponse {
	resp := models.RouteResponse{
		Source:          string(result.Source),
		Polyline:        result.Polyline,
		DistanceMeters:  result.DistanceMeters,
		DurationSeconds: result.DurationSeconds,
		Steps:           make([]models.RouteStep, 0, len(result.Steps)),
		From:            models.Point{Lat: result.From.Lat, Lon: result.From.Lon},
		To:              models.Point{Lat: result.To.Lat, Lon: result.To.Lon},
		ComputedAt:      models.Timestamp(result.ComputedAt),
		MapsLink:        routing.MapsLink(result.From, result.To),
	}
	for _, s := range result.Steps {
		resp.Steps = append(resp.Steps, models.RouteStep{
			Instruction:     s.Instruction,
			DistanceMeters:  s.DistanceMeters,
			DurationSeconds: s.DurationSeconds,
		})
	}
	for _, c := range result.Geometry {
		resp.Geometry = append(resp.Geometry, models.Point{Lat: c.Lat, Lon: c.Lon})
	}
	return resp
}
