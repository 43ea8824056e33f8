package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremap/caremap/internal/api"
	"github.com/caremap/caremap/internal/api/models"
	"github.com/caremap/caremap/internal/location"
	"github.com/caremap/caremap/internal/practitioner"
	"github.com/caremap/caremap/internal/routing"
	"github.com/caremap/caremap/pkg/geo"
)

// fakePositionProvider returns a canned position or error.
type fakePositionProvider struct {
	sample *location.PositionSample
	err    error
}

func (f *fakePositionProvider) CurrentPosition(_ context.Context, _ location.Options) (*location.PositionSample, error) {
	if f.err != nil {
		return nil, f.err
	}
	cpy := *f.sample
	return &cpy, nil
}

// fakeRouteProvider returns a canned routed result or error.
type fakeRouteProvider struct {
	err error
}

func (f *fakeRouteProvider) Route(_ context.Context, from, to geo.Coordinate) (*routing.RouteResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &routing.RouteResult{
		Source:          routing.SourceRouted,
		Geometry:        []geo.Coordinate{from, to},
		Polyline:        "mock",
		DistanceMeters:  12000,
		DurationSeconds: 930,
		Steps: []routing.Step{
			{Instruction: "Drive to destination", DistanceMeters: 12000, DurationSeconds: 930},
		},
		From:       from,
		To:         to,
		ComputedAt: time.Now(),
	}, nil
}

func (f *fakeRouteProvider) Name() string { return "fake" }

func testPool() []practitioner.Practitioner {
	return []practitioner.Practitioner{
		{
			ID:              "prc_1",
			Name:            "Dr. Asha Rao",
			Specialty:       "Cardiology",
			City:            "Mumbai",
			ExperienceYears: 12,
			Verified:        true,
			Location:        &geo.Coordinate{Lat: 19.0980, Lon: 72.9150},
		},
		{
			ID:              "prc_2",
			Name:            "Dr. Kunal Mehta",
			Specialty:       "Dermatology",
			City:            "Pune",
			ExperienceYears: 4,
		},
		{
			ID:              "prc_3",
			Name:            "Dr. Neha Sharma",
			Specialty:       "Cardiology",
			City:            "Delhi",
			ExperienceYears: 20,
			Location:        &geo.Coordinate{Lat: 28.6139, Lon: 77.2090},
		},
	}
}

type testEnv struct {
	router    http.Handler
	positions *fakePositionProvider
	routes    *fakeRouteProvider
}

func newTestEnv() *testEnv {
	logger := zerolog.New(io.Discard)

	repo := practitioner.NewInMemoryRepository(testPool())
	practitionerService := practitioner.NewService(practitioner.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})

	positions := &fakePositionProvider{
		sample: &location.PositionSample{
			Coordinate:     geo.Coordinate{Lat: 19.0760, Lon: 72.8777},
			AccuracyMeters: 25,
			CapturedAt:     time.Now(),
		},
	}
	locationService := location.NewService(location.ServiceConfig{
		Provider: positions,
		Logger:   logger,
	})

	routes := &fakeRouteProvider{}
	routingService := routing.NewService(routing.ServiceConfig{
		Provider: routes,
		Logger:   logger,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:             "test",
		BuildTime:           "2026-01-01T00:00:00Z",
		Logger:              logger,
		PractitionerService: practitionerService,
		LocationService:     locationService,
		RoutingService:      routingService,
	})

	return &testEnv{router: router, positions: positions, routes: routes}
}

func (e *testEnv) acquirePosition(t *testing.T) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/location:acquire", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
}

func TestRouter_SearchPractitioners_NoPosition(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/practitioners", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.PractitionerSearchResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	// Without an acquired position, the radius filter is inert: everyone
	// passes the default criteria.
	assert.Len(t, resp.Results, 3)
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, 3, resp.FilteredCount)
	assert.Nil(t, resp.Position)
	for _, p := range resp.Results {
		assert.Nil(t, p.DistanceMeters)
	}

	assert.Equal(t, []string{"Cardiology", "Dermatology"}, resp.Facets.Specialties)
	assert.Equal(t, []string{"Delhi", "Mumbai", "Pune"}, resp.Facets.Cities)
}

func TestRouter_SearchPractitioners_WithPosition(t *testing.T) {
	env := newTestEnv()
	env.acquirePosition(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/practitioners?radius_km=50", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.PractitionerSearchResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	// Only the Mumbai practitioner is within 50 km; the one without a
	// location and the one in Delhi drop out.
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "prc_1", resp.Results[0].ID)
	require.NotNil(t, resp.Results[0].DistanceMeters)
	assert.InDelta(t, 4600, *resp.Results[0].DistanceMeters, 500)

	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, 1, resp.FilteredCount)
	require.NotNil(t, resp.Position)
	assert.InDelta(t, 19.0760, resp.Position.Position.Lat, 0.0001)
}

func TestRouter_SearchPractitioners_InvalidRadius(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/practitioners?radius_km=abc", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
}

func TestRouter_AcquireLocation(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/v1/location:acquire", bytes.NewReader([]byte(`{"forceFresh":true}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.LocationResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.InDelta(t, 19.0760, resp.Position.Lat, 0.0001)
	assert.Equal(t, 25.0, resp.AccuracyMeters)
	assert.False(t, resp.Degraded)
	assert.Empty(t, resp.PrecisionWarning)
}

func TestRouter_AcquireLocation_Degraded(t *testing.T) {
	env := newTestEnv()
	env.positions.sample.AccuracyMeters = 350

	req := httptest.NewRequest(http.MethodPost, "/v1/location:acquire", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.LocationResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.True(t, resp.Degraded)
	assert.NotEmpty(t, resp.PrecisionWarning)
}

func TestRouter_AcquireLocation_PermissionDenied(t *testing.T) {
	env := newTestEnv()
	env.positions.err = location.ErrPermissionDenied

	req := httptest.NewRequest(http.MethodPost, "/v1/location:acquire", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)
	assert.Contains(t, problem.Detail, "permission")
}

func TestRouter_AcquireLocation_Unsupported(t *testing.T) {
	env := newTestEnv()
	env.positions.err = location.ErrUnsupported

	req := httptest.NewRequest(http.MethodPost, "/v1/location:acquire", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRouter_GetLocation_BeforeAcquire(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/location", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ComputeRoute_ExplicitPoints(t *testing.T) {
	env := newTestEnv()

	input := models.RouteComputeRequest{
		Origin:      &models.Point{Lat: 19.0760, Lon: 72.8777},
		Destination: &models.Point{Lat: 19.0980, Lon: 72.9150},
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes:compute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RouteResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "routed", resp.Source)
	assert.Equal(t, 930.0, resp.DurationSeconds)
	assert.NotEmpty(t, resp.Steps)
	assert.Contains(t, resp.MapsLink, "https://www.google.com/maps/dir/")
}

func TestRouter_ComputeRoute_ToPractitioner(t *testing.T) {
	env := newTestEnv()
	env.acquirePosition(t)

	input := models.RouteComputeRequest{
		PractitionerID: strPtr("prc_1"),
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes:compute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RouteResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.InDelta(t, 19.0980, resp.To.Lat, 0.0001)
	assert.InDelta(t, 19.0760, resp.From.Lat, 0.0001)
}

func TestRouter_ComputeRoute_NoOrigin(t *testing.T) {
	env := newTestEnv()

	input := models.RouteComputeRequest{
		Destination: &models.Point{Lat: 19.0980, Lon: 72.9150},
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes:compute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_ComputeRoute_UnknownPractitioner(t *testing.T) {
	env := newTestEnv()
	env.acquirePosition(t)

	input := models.RouteComputeRequest{
		PractitionerID: strPtr("prc_missing"),
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes:compute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ComputeRoute_FallbackOnProviderFailure(t *testing.T) {
	env := newTestEnv()
	env.routes.err = routing.ErrServiceUnreachable

	input := models.RouteComputeRequest{
		Origin:      &models.Point{Lat: 19.0760, Lon: 72.8777},
		Destination: &models.Point{Lat: 19.0980, Lon: 72.9150},
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes:compute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	// A provider outage must never surface as an error.
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RouteResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "estimated", resp.Source)
	require.Len(t, resp.Steps, 1)
	assert.Contains(t, resp.Steps[0].Instruction, "Head ")
}

func TestRouter_ActiveRoute_Lifecycle(t *testing.T) {
	env := newTestEnv()

	// No active route yet
	req := httptest.NewRequest(http.MethodGet, "/v1/routes/active", http.NoBody)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Compute one
	input := models.RouteComputeRequest{
		Origin:      &models.Point{Lat: 19.0760, Lon: 72.8777},
		Destination: &models.Point{Lat: 19.0980, Lon: 72.9150},
	}
	body, _ := json.Marshal(input)
	req = httptest.NewRequest(http.MethodPost, "/v1/routes:compute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Now it is active
	req = httptest.NewRequest(http.MethodGet, "/v1/routes/active", http.NoBody)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Clear it
	req = httptest.NewRequest(http.MethodDelete, "/v1/routes/active", http.NoBody)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Gone again
	req = httptest.NewRequest(http.MethodGet, "/v1/routes/active", http.NoBody)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func strPtr(s string) *string {
	return &s
}
