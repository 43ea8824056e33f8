package practitioner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/caremap/caremap/pkg/geo"
)

// ServiceConfig holds configuration for the directory service.
type ServiceConfig struct {
	// Repository is the directory source.
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// SnapshotTTL is how long a directory snapshot is served before the next
	// Search reloads it (default: 1 minute).
	SnapshotTTL time.Duration
}

// Service serves filtered views of the practitioner directory. It holds a
// snapshot of the pool so every Search within the TTL window filters the same
// data.
type Service struct {
	repo        Repository
	logger      zerolog.Logger
	snapshotTTL time.Duration

	mu        sync.RWMutex
	snapshot  []Practitioner
	fetchedAt time.Time
}

// NewService creates a new directory service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.SnapshotTTL
	if ttl == 0 {
		ttl = time.Minute
	}

	return &Service{
		repo:        cfg.Repository,
		logger:      cfg.Logger,
		snapshotTTL: ttl,
	}
}

// Search filters the directory snapshot by the given criteria and returns the
// matches together with the pool facets and counts. When origin is non-nil,
// each match carries its great-circle distance from it.
func (s *Service) Search(ctx context.Context, origin *geo.Coordinate, criteria FilterCriteria) (*SearchResult, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	pool, err := s.pool(ctx)
	if err != nil {
		return nil, err
	}

	filtered := Filter(pool, origin, criteria)

	matches := make([]Match, 0, len(filtered))
	for _, p := range filtered {
		m := Match{Practitioner: p}
		if origin != nil && p.HasLocation() {
			d := geo.DistanceMeters(*origin, *p.Location)
			m.DistanceMeters = &d
		}
		matches = append(matches, m)
	}

	return &SearchResult{
		Matches:       matches,
		Facets:        PoolFacets(pool),
		TotalCount:    len(pool),
		FilteredCount: len(filtered),
	}, nil
}

// Get returns a single practitioner by ID, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Practitioner, error) {
	pool, err := s.pool(ctx)
	if err != nil {
		return nil, err
	}

	for i := range pool {
		if pool[i].ID == id {
			p := pool[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// RefreshSnapshot reloads the directory snapshot regardless of TTL and
// returns the number of entries loaded.
func (s *Service) RefreshSnapshot(ctx context.Context) (int, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to refresh practitioner snapshot")
		return 0, err
	}

	s.mu.Lock()
	s.snapshot = entries
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info().
		Int("entries", len(entries)).
		Msg("practitioner snapshot refreshed")

	return len(entries), nil
}

// pool returns the current snapshot, reloading it when stale. A load failure
// with a previous snapshot available serves the stale snapshot rather than
// failing the search.
func (s *Service) pool(ctx context.Context) ([]Practitioner, error) {
	s.mu.RLock()
	if s.snapshot != nil && time.Since(s.fetchedAt) < s.snapshotTTL {
		snapshot := s.snapshot
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	entries, err := s.repo.List(ctx)
	if err != nil {
		s.mu.RLock()
		stale := s.snapshot
		s.mu.RUnlock()

		if stale != nil {
			s.logger.Warn().Err(err).Msg("serving stale practitioner snapshot")
			return stale, nil
		}
		return nil, ErrDirectoryUnavailable
	}

	s.mu.Lock()
	s.snapshot = entries
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return entries, nil
}
