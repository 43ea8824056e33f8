package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/caremap/caremap/internal/api/models"
	"github.com/caremap/caremap/internal/api/response"
	"github.com/caremap/caremap/internal/location"
)

// LocationHandler handles visitor positioning endpoints.
type LocationHandler struct {
	locations *location.Service
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locations *location.Service) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// Acquire handles POST /v1/location:acquire - acquire the visitor position.
func (h *LocationHandler) Acquire(w http.ResponseWriter, r *http.Request) {
	var input models.LocationAcquireRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	sample, err := h.locations.Acquire(r.Context(), input.ForceFresh)
	if err != nil {
		h.writeLocationError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toLocationResponse(sample))
}

// Current handles GET /v1/location - the last acquired position.
func (h *LocationHandler) Current(w http.ResponseWriter, r *http.Request) {
	sample := h.locations.Current()
	if sample == nil {
		response.NotFound(w, r, "no position has been acquired yet")
		return
	}

	response.JSON(w, r, http.StatusOK, toLocationResponse(sample))
}

// writeLocationError maps positioning failures to RFC7807 problems with
// cause-specific guidance.
func (h *LocationHandler) writeLocationError(w http.ResponseWriter, r *http.Request, err error) {
	guidance := location.Guidance(err)

	switch {
	case errors.Is(err, location.ErrPermissionDenied):
		response.Forbidden(w, r, guidance)
	case errors.Is(err, location.ErrTimeout):
		response.GatewayTimeout(w, r, guidance)
	case errors.Is(err, location.ErrUnsupported):
		response.NotImplemented(w, r, guidance)
	case errors.Is(err, location.ErrPositionUnavailable):
		response.ServiceUnavailable(w, r, guidance)
	default:
		response.InternalError(w, r, guidance)
	}
}

func toLocationResponse(sample *location.PositionSample) models.LocationResponse {
	resp := models.LocationResponse{
		Position:       models.Point{Lat: sample.Coordinate.Lat, Lon: sample.Coordinate.Lon},
		AccuracyMeters: sample.AccuracyMeters,
		CapturedAt:     models.Timestamp(sample.CapturedAt),
		AgeSeconds:     sample.Age().Seconds(),
		Degraded:       sample.Degraded(),
	}
	if resp.Degraded {
		resp.PrecisionWarning = sample.PrecisionWarning()
	}
	return resp
}
