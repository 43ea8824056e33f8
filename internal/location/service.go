package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Attempt parameters. The primary attempt may reuse a very recent cached fix
// unless the caller forces a fresh read; the fallback attempt after a timeout
// relaxes accuracy and widens the cache tolerance for a faster answer.
const (
	primaryTimeout  = 10 * time.Second
	primaryMaxAge   = 5 * time.Second
	fallbackTimeout = 5 * time.Second
	fallbackMaxAge  = 10 * time.Second
)

// ServiceConfig holds configuration for the acquirer.
type ServiceConfig struct {
	// Provider is the positioning capability.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service acquires positions through the provider. Acquisition is
// single-flight: a call issued while another is outstanding joins it and
// observes its outcome instead of starting a second sensor session.
type Service struct {
	provider Provider
	logger   zerolog.Logger

	mu       sync.Mutex
	inflight *inflightAcquire
	current  *PositionSample
}

// inflightAcquire is the shared outcome of one underlying acquisition.
type inflightAcquire struct {
	done   chan struct{}
	sample *PositionSample
	err    error
}

// NewService creates a new location service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Acquire returns a best-effort position sample. forceFresh disables cached
// fix reuse on the primary attempt. On a timeout, one fallback attempt with
// reduced accuracy is made before the failure surfaces.
func (s *Service) Acquire(ctx context.Context, forceFresh bool) (*PositionSample, error) {
	s.mu.Lock()
	if fl := s.inflight; fl != nil {
		s.mu.Unlock()
		s.logger.Debug().Msg("joining in-flight position request")

		select {
		case <-fl.done:
			return fl.sample, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fl := &inflightAcquire{done: make(chan struct{})}
	s.inflight = fl
	s.mu.Unlock()

	sample, err := s.acquire(ctx, forceFresh)

	s.mu.Lock()
	fl.sample, fl.err = sample, err
	if err == nil {
		s.current = sample
	}
	s.inflight = nil
	s.mu.Unlock()
	close(fl.done)

	return sample, err
}

// Current returns a copy of the most recent successful sample, or nil when
// none exists yet.
func (s *Service) Current() *PositionSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	cpy := *s.current
	return &cpy
}

func (s *Service) acquire(ctx context.Context, forceFresh bool) (*PositionSample, error) {
	opts := Options{
		HighAccuracy: true,
		Timeout:      primaryTimeout,
		MaxAge:       primaryMaxAge,
	}
	if forceFresh {
		opts.MaxAge = 0
	}

	sample, err := s.provider.CurrentPosition(ctx, opts)
	if errors.Is(err, ErrTimeout) {
		// Only a timeout gets the low-accuracy retry; permission refusal and
		// unavailability are terminal for this attempt.
		s.logger.Warn().Msg("high-accuracy position timed out, retrying with reduced accuracy")

		sample, err = s.provider.CurrentPosition(ctx, Options{
			HighAccuracy: false,
			Timeout:      fallbackTimeout,
			MaxAge:       fallbackMaxAge,
		})
	}
	if err != nil {
		s.logger.Error().Err(err).Bool("force_fresh", forceFresh).Msg("position acquisition failed")
		return nil, err
	}

	evt := s.logger.Info().
		Float64("lat", sample.Coordinate.Lat).
		Float64("lon", sample.Coordinate.Lon).
		Float64("accuracy_m", sample.AccuracyMeters).
		Dur("age", sample.Age())
	if sample.Degraded() {
		evt = evt.Str("precision_warning", sample.PrecisionWarning())
	}
	evt.Msg("position acquired")

	return sample, nil
}
