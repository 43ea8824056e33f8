package geoapify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/caremap/caremap/internal/routing"
	"github.com/caremap/caremap/pkg/geo"
)

var (
	testFrom = geo.Coordinate{Lat: 19.0760, Lon: 72.8777}
	testTo   = geo.Coordinate{Lat: 19.0980, Lon: 72.9150}
)

func TestClient_Route_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/routing_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/v1/routing" {
			t.Errorf("expected path /v1/routing, got %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("apiKey") != "mock123" {
			t.Errorf("expected apiKey 'mock123', got '%s'", q.Get("apiKey"))
		}
		if q.Get("mode") != "drive" {
			t.Errorf("expected mode 'drive', got '%s'", q.Get("mode"))
		}
		// Waypoints must be lat,lon pairs in travel order.
		expectedWaypoints := "19.076000,72.877700|19.098000,72.915000"
		if q.Get("waypoints") != expectedWaypoints {
			t.Errorf("expected waypoints %s, got %s", expectedWaypoints, q.Get("waypoints"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	result, err := client.Route(context.Background(), testFrom, testTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Source != routing.SourceRouted {
		t.Errorf("expected source %s, got %s", routing.SourceRouted, result.Source)
	}
	if result.DistanceMeters != 12000 {
		t.Errorf("expected distance 12000, got %f", result.DistanceMeters)
	}
	// The API reports time in seconds and the value must pass through
	// untouched, not be scaled as if it were milliseconds.
	if result.DurationSeconds != 930 {
		t.Errorf("expected duration 930 seconds, got %f", result.DurationSeconds)
	}
	if result.Polyline == "" {
		t.Error("expected non-empty encoded polyline")
	}
	if len(result.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(result.Steps))
	}
	if result.Steps[0].Instruction != "Drive north-east on Western Express Highway." {
		t.Errorf("unexpected first instruction: %s", result.Steps[0].Instruction)
	}
	if result.Steps[0].DurationSeconds != 320 {
		t.Errorf("expected first step duration 320, got %f", result.Steps[0].DurationSeconds)
	}

	// Geometry must be transposed from the API's [lon, lat] order.
	if len(result.Geometry) != 4 {
		t.Fatalf("expected 4 geometry points, got %d", len(result.Geometry))
	}
	first := result.Geometry[0]
	if first.Lat != 19.0760 || first.Lon != 72.8777 {
		t.Errorf("expected first point {19.0760 72.8777}, got {%f %f}", first.Lat, first.Lon)
	}
	last := result.Geometry[3]
	if last.Lat != 19.0980 || last.Lon != 72.9150 {
		t.Errorf("expected last point {19.0980 72.9150}, got {%f %f}", last.Lat, last.Lon)
	}

	if result.From != testFrom {
		t.Errorf("expected from %v, got %v", testFrom, result.From)
	}
	if result.To != testTo {
		t.Errorf("expected to %v, got %v", testTo, result.To)
	}
}

func TestClient_Route_NoRouteFound(t *testing.T) {
	respBody, err := os.ReadFile("testdata/error_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err = client.Route(context.Background(), testFrom, testTo)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrNoRouteFound) {
		t.Errorf("expected ErrNoRouteFound, got %v", routingErr.Err)
	}
}

func TestClient_Route_EmptyFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Route(context.Background(), testFrom, testTo)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrNoRouteFound) {
		t.Errorf("expected ErrNoRouteFound, got %v", routingErr.Err)
	}
}

func TestClient_Route_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Route(context.Background(), testFrom, testTo)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", routingErr.Err)
	}
}

func TestClient_Route_AccessDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"statusCode":401,"error":"Unauthorized","message":"Invalid apiKey"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "bad-key",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Route(context.Background(), testFrom, testTo)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrServiceUnreachable) {
		t.Errorf("expected ErrServiceUnreachable, got %v", routingErr.Err)
	}
}

func TestClient_Route_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Route(context.Background(), testFrom, testTo)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrServiceUnreachable) {
		t.Errorf("expected ErrServiceUnreachable, got %v", routingErr.Err)
	}
}

func TestClient_Route_NetworkError(t *testing.T) {
	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		HTTPClient: &mockFailingClient{},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Route(context.Background(), testFrom, testTo)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrServiceUnreachable) {
		t.Errorf("expected ErrServiceUnreachable, got %v", routingErr.Err)
	}
}

func TestClient_Route_InvalidCoordinates(t *testing.T) {
	tests := []struct {
		name string
		from geo.Coordinate
		to   geo.Coordinate
	}{
		{
			name: "origin latitude out of range",
			from: geo.Coordinate{Lat: 91.0, Lon: 72.9},
			to:   testTo,
		},
		{
			name: "destination longitude out of range",
			from: testFrom,
			to:   geo.Coordinate{Lat: 19.0, Lon: 181.0},
		},
	}

	client := NewClient(ClientConfig{
		APIKey: "mock123",
		Logger: zerolog.Nop(),
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Route(context.Background(), tt.from, tt.to)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var routingErr *routing.Error
			if !errors.As(err, &routingErr) {
				t.Fatalf("expected routing.Error, got %T", err)
			}
			if !errors.Is(routingErr.Err, routing.ErrInvalidCoordinates) {
				t.Errorf("expected ErrInvalidCoordinates, got %v", routingErr.Err)
			}
		})
	}
}

func TestClient_Name(t *testing.T) {
	client := NewClient(ClientConfig{
		APIKey: "test",
		Logger: zerolog.Nop(),
	})

	if client.Name() != ProviderName {
		t.Errorf("expected %s, got %s", ProviderName, client.Name())
	}
}

func TestSecondsFromAPI(t *testing.T) {
	if got := secondsFromAPI(930); got != 930 {
		t.Errorf("expected 930, got %f", got)
	}
}

// mockHTTPClient wraps http.Client to implement HTTPDoer interface.
type mockHTTPClient struct {
	client *http.Client
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.client.Do(req)
}

// mockFailingClient simulates network errors.
type mockFailingClient struct{}

func (m *mockFailingClient) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("network error")
}
