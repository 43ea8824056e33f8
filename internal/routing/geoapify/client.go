// Package geoapify provides a client for the Geoapify routing API.
package geoapify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/caremap/caremap/internal/provider/resilience"
	"github.com/caremap/caremap/internal/routing"
	"github.com/caremap/caremap/pkg/geo"
	"github.com/caremap/caremap/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "geoapify"

	// DefaultBaseURL is the Geoapify API base URL.
	DefaultBaseURL = "https://api.geoapify.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// travelMode is the routing profile requested from the API.
	travelMode = "drive"
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Geoapify client.
type ClientConfig struct {
	// APIKey is the Geoapify API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the Geoapify API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Geoapify routing API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Geoapify client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Route retrieves driving directions between two points.
func (c *Client) Route(ctx context.Context, from, to geo.Coordinate) (*routing.RouteResult, error) {
	if !from.Valid() {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}
	if !to.Valid() {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}

	// Waypoints are lat,lon pairs separated by a pipe.
	waypoints := fmt.Sprintf("%f,%f|%f,%f", from.Lat, from.Lon, to.Lat, to.Lon)

	params := url.Values{}
	params.Set("waypoints", waypoints)
	params.Set("mode", travelMode)
	params.Set("details", "instruction_details")
	params.Set("apiKey", c.apiKey)

	reqURL := fmt.Sprintf("%s/v1/routing?%s", c.baseURL, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Float64("from_lat", from.Lat).
		Float64("from_lon", from.Lon).
		Float64("to_lat", to.Lat).
		Float64("to_lon", to.Lon).
		Msg("requesting route from Geoapify")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrServiceUnreachable,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var apiResp routingResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "DECODE_FAILED",
			Message:  "could not decode routing response",
			Err:      routing.ErrMalformedResponse,
		}
	}

	if len(apiResp.Features) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "routing response contained no route",
			Err:      routing.ErrNoRouteFound,
		}
	}

	result, err := c.toRouteResult(&apiResp.Features[0], from, to)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Float64("distance_m", result.DistanceMeters).
		Float64("duration_s", result.DurationSeconds).
		Int("steps", len(result.Steps)).
		Msg("received route from Geoapify")

	return result, nil
}

// handleErrorResponse maps API error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr errorResponse
	message := fmt.Sprintf("routing provider returned status %d", statusCode)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "ACCESS_DENIED",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrServiceUnreachable,
		}
	case statusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "route"):
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  message,
			Err:      routing.ErrNoRouteFound,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrServiceUnreachable,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  message,
			Err:      routing.ErrServiceUnreachable,
		}
	}
}

// toRouteResult converts an API feature to the domain model.
func (c *Client) toRouteResult(f *feature, from, to geo.Coordinate) (*routing.RouteResult, error) {
	geometry := decodeGeometry(&f.Geometry)
	if len(geometry) < 2 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "EMPTY_GEOMETRY",
			Message:  "routing response geometry is unusable",
			Err:      routing.ErrMalformedResponse,
		}
	}

	var steps []routing.Step
	for i := range f.Properties.Legs {
		for _, s := range f.Properties.Legs[i].Steps {
			steps = append(steps, routing.Step{
				Instruction:     s.Instruction.Text,
				DistanceMeters:  s.Distance,
				DurationSeconds: secondsFromAPI(s.Time),
			})
		}
	}

	return &routing.RouteResult{
		Source:          routing.SourceRouted,
		Geometry:        geometry,
		Polyline:        polyline.Encode(geometry),
		DistanceMeters:  f.Properties.Distance,
		DurationSeconds: secondsFromAPI(f.Properties.Time),
		Steps:           steps,
		From:            from,
		To:              to,
		ComputedAt:      time.Now(),
	}, nil
}

// decodeGeometry flattens a MultiLineString into travel-order coordinates.
// API positions are [lon, lat] and must be transposed.
func decodeGeometry(g *geometry) []geo.Coordinate {
	var coords []geo.Coordinate
	for _, line := range g.Coordinates {
		for _, pos := range line {
			if len(pos) < 2 {
				continue
			}
			coords = append(coords, geo.Coordinate{Lat: pos[1], Lon: pos[0]})
		}
	}
	return coords
}

// secondsFromAPI converts the API's time field to seconds. The routing API
// already reports time in seconds, so the value passes through unchanged;
// the conversion exists to pin the unit at a single point.
func secondsFromAPI(t float64) float64 {
	return t
}
