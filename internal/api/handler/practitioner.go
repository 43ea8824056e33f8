package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/caremap/caremap/internal/api/models"
	"github.com/caremap/caremap/internal/api/response"
	"github.com/caremap/caremap/internal/location"
	"github.com/caremap/caremap/internal/practitioner"
	"github.com/caremap/caremap/pkg/geo"
)

// PractitionerHandler handles practitioner directory endpoints.
type PractitionerHandler struct {
	practitioners *practitioner.Service
	locations     *location.Service
}

// NewPractitionerHandler creates a new PractitionerHandler.
func NewPractitionerHandler(practitioners *practitioner.Service, locations *location.Service) *PractitionerHandler {
	return &PractitionerHandler{
		practitioners: practitioners,
		locations:     locations,
	}
}

// Search handles GET /v1/practitioners - filtered directory search.
func (h *PractitionerHandler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, fieldErrors := parseCriteria(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid filter parameters", fieldErrors)
		return
	}

	// The distance filter only applies when a position has been acquired.
	var origin *geo.Coordinate
	var sample *location.PositionSample
	if h.locations != nil {
		if sample = h.locations.Current(); sample != nil {
			c := sample.Coordinate
			origin = &c
		}
	}

	result, err := h.practitioners.Search(r.Context(), origin, criteria)
	if err != nil {
		if errors.Is(err, practitioner.ErrDirectoryUnavailable) {
			response.ServiceUnavailable(w, r, "practitioner directory is temporarily unavailable")
			return
		}
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	resp := models.PractitionerSearchResponse{
		Results:       make([]models.PractitionerResult, 0, len(result.Matches)),
		Facets:        models.PractitionerFacets{Specialties: result.Facets.Specialties, Cities: result.Facets.Cities},
		TotalCount:    result.TotalCount,
		FilteredCount: result.FilteredCount,
	}
	for _, m := range result.Matches {
		resp.Results = append(resp.Results, toPractitionerResult(m))
	}
	if sample != nil {
		loc := toLocationResponse(sample)
		resp.Position = &loc
	}

	w.Header().Set("Cache-Control", "private, max-age=30")
	response.JSON(w, r, http.StatusOK, resp)
}

func parseCriteria(r *http.Request) (practitioner.FilterCriteria, []models.FieldError) {
	criteria := practitioner.DefaultCriteria()
	q := r.URL.Query()
	var fieldErrors []models.FieldError

	if v := q.Get("radius_km"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil || radius < 0 {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "radius_km", Message: "must be a non-negative number"})
		} else {
			criteria.RadiusKm = radius
		}
	}
	if v := q.Get("specialty"); v != "" {
		criteria.Specialty = v
	}
	if v := q.Get("city"); v != "" {
		criteria.City = v
	}
	if v := q.Get("min_experience"); v != "" {
		years, err := strconv.Atoi(v)
		if err != nil || years < 0 {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "min_experience", Message: "must be a non-negative integer"})
		} else {
			criteria.MinExperienceYears = years
		}
	}

	return criteria, fieldErrors
}

func toPractitionerResult(m practitioner.Match) models.PractitionerResult {
	result := models.PractitionerResult{
		ID:              m.ID,
		Name:            m.Name,
		Specialty:       m.Specialty,
		City:            m.City,
		ExperienceYears: m.ExperienceYears,
		Languages:       m.Languages,
		Verified:        m.Verified,
		DistanceMeters:  m.DistanceMeters,
	}
	if m.Location != nil {
		result.Location = &models.Point{Lat: m.Location.Lat, Lon: m.Location.Lon}
	}
	return result
}
