// Package geoip provides an IP-geolocation implementation of the positioning
// capability for runtimes without a device sensor.
package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/caremap/caremap/internal/location"
	"github.com/caremap/caremap/internal/provider/resilience"
	"github.com/caremap/caremap/pkg/geo"
)

const (
	// ProviderName identifies this positioning provider.
	ProviderName = "geoip"

	// DefaultBaseURL is the geolocation API base URL.
	DefaultBaseURL = "https://api.geoapify.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the geolocation client.
type ClientConfig struct {
	// APIKey authenticates against the geolocation API. Required; an empty
	// key makes every attempt fail as unsupported.
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client resolves the caller's position through an IP-geolocation API. It
// keeps the last successful fix so very recent requests can be answered
// without another upstream call, mirroring a device sensor's position cache.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	registry   *resilience.Registry
	logger     zerolog.Logger

	mu      sync.Mutex
	lastFix *location.PositionSample
}

// NewClient creates a new geolocation client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = DefaultTimeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		registry:   cfg.Registry,
		logger:     cfg.Logger,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return ProviderName
}

// CurrentPosition implements location.Provider.
func (c *Client) CurrentPosition(ctx context.Context, opts location.Options) (*location.PositionSample, error) {
	if c.apiKey == "" {
		return nil, location.ErrUnsupported
	}

	if cached := c.cachedFix(opts.MaxAge); cached != nil {
		c.logger.Debug().
			Dur("age", cached.Age()).
			Msg("reusing cached position fix")
		return cached, nil
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	sample, err := c.fetch(ctx, opts.HighAccuracy)
	if err != nil {
		if c.registry != nil {
			c.registry.RecordFailure(ProviderName, err)
		}
		return nil, err
	}
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}

	c.mu.Lock()
	c.lastFix = sample
	c.mu.Unlock()

	cpy := *sample
	return &cpy, nil
}

// cachedFix returns a copy of the last fix when it is within maxAge.
func (c *Client) cachedFix(maxAge time.Duration) *location.PositionSample {
	if maxAge <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastFix == nil || c.lastFix.Age() > maxAge {
		return nil
	}
	cpy := *c.lastFix
	return &cpy
}

func (c *Client) fetch(ctx context.Context, highAccuracy bool) (*location.PositionSample, error) {
	mode := "coarse"
	if highAccuracy {
		mode = "precise"
	}

	params := url.Values{}
	params.Set("mode", mode)
	params.Set("apiKey", c.apiKey)
	reqURL := fmt.Sprintf("%s/v1/ipinfo?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("mode", mode).Msg("requesting position from geolocation API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, location.ErrTimeout
		}
		return nil, location.ErrPositionUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, location.ErrPositionUnavailable
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, location.ErrPermissionDenied
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn().Int("status", resp.StatusCode).Msg("geolocation API returned non-success status")
		return nil, location.ErrPositionUnavailable
	}

	var apiResp ipinfoResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, location.ErrPositionUnavailable
	}

	coord := geo.Coordinate{Lat: apiResp.Location.Latitude, Lon: apiResp.Location.Longitude}
	if !coord.Valid() || (coord.Lat == 0 && coord.Lon == 0) {
		return nil, location.ErrPositionUnavailable
	}

	accuracy := apiResp.AccuracyRadiusMeters
	if accuracy == 0 {
		// IP fixes without an explicit radius are city-level at best.
		accuracy = defaultAccuracyMeters
	}

	return &location.PositionSample{
		Coordinate:     coord,
		AccuracyMeters: accuracy,
		CapturedAt:     time.Now(),
	}, nil
}
