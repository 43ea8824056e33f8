package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/caremap/caremap/internal/routing"
	"github.com/caremap/caremap/pkg/geo"
)

// probeOffsetDeg shifts the probe destination roughly two kilometers so the
// routing provider has a real pair of waypoints to work with.
const probeOffsetDeg = 0.02

// DirectoryRefresher reloads the practitioner directory snapshot.
type DirectoryRefresher interface {
	RefreshSnapshot(ctx context.Context) (int, error)
}

// RefreshJob handles directory refresh and routing provider probes.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	// Dependencies (optional, nil if not configured)
	directory DirectoryRefresher
	routes    routing.Provider

	// Metrics
	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns          int64
	SuccessfulProbes   int64
	FailedProbes       int64
	DirectoryRefreshes int64
	RouteProbes        int64

	// Directory state
	DirectoryEntries int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Logger    zerolog.Logger
	Directory DirectoryRefresher
	Routes    routing.Provider
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultRefreshConfig()
	}

	return &RefreshJob{
		config:    config,
		logger:    cfg.Logger,
		directory: cfg.Directory,
		routes:    cfg.Routes,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	TotalPoints      int
	Successful       int
	Failed           int
	DirectoryEntries int
	Errors           []RefreshError
}

// RefreshError represents an error during a refresh run.
type RefreshError struct {
	Stage string
	Point Point
	Error string
}

// Run executes the refresh job: one directory snapshot reload followed by
// routing provider probes across all configured targets.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting directory refresh job")

	if err := j.refreshDirectory(ctx, result); err != nil {
		result.Errors = append(result.Errors, RefreshError{
			Stage: "directory",
			Error: err.Error(),
		})
	}

	points := j.config.AllPoints()

	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			j.probeWorker(ctx, workerID, pointsChan, resultsChan)
		}(i)
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("directory_entries", result.DirectoryEntries).
		Msg("directory refresh job completed")

	return result
}

type pointResult struct {
	point   Point
	success bool
	errors  []RefreshError
}

func (j *RefreshJob) probeWorker(ctx context.Context, _ int, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			result := j.probePoint(ctx, point)
			results <- result
		}
	}
}

func (j *RefreshJob) probePoint(ctx context.Context, point Point) pointResult {
	result := pointResult{
		point:   point,
		success: true,
	}

	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.ProbeRouting && j.routes != nil {
		if err := j.probeRoute(pointCtx, point); err != nil {
			result.errors = append(result.errors, RefreshError{
				Stage: "routing",
				Point: point,
				Error: err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.RouteProbes, 1)
		}
	}

	return result
}

// probeRoute requests a short route anchored at the point. It keeps the
// provider's circuit breaker state warm and detects outages before a user
// route request hits them.
func (j *RefreshJob) probeRoute(ctx context.Context, point Point) error {
	from := geo.Coordinate{Lat: point.Lat, Lon: point.Lon}
	to := geo.Coordinate{Lat: point.Lat + probeOffsetDeg, Lon: point.Lon + probeOffsetDeg}

	_, err := j.routes.Route(ctx, from, to)
	return err
}

// refreshDirectory reloads the practitioner directory snapshot. The snapshot
// is shared, so one reload per run covers every target.
func (j *RefreshJob) refreshDirectory(ctx context.Context, result *RefreshResult) error {
	if !j.config.RefreshDirectory || j.directory == nil {
		return nil
	}

	j.logger.Debug().Msg("refreshing practitioner directory snapshot")

	n, err := j.directory.RefreshSnapshot(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to refresh practitioner directory")
		return err
	}

	result.DirectoryEntries = n
	atomic.AddInt64(&j.metrics.DirectoryRefreshes, 1)
	atomic.StoreInt64(&j.metrics.DirectoryEntries, int64(n))
	return nil
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulProbes += int64(result.Successful)
	j.metrics.FailedProbes += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:          j.metrics.TotalRuns,
		SuccessfulProbes:   j.metrics.SuccessfulProbes,
		FailedProbes:       j.metrics.FailedProbes,
		DirectoryRefreshes: j.metrics.DirectoryRefreshes,
		RouteProbes:        j.metrics.RouteProbes,
		DirectoryEntries:   j.metrics.DirectoryEntries,
		LastRunAt:          j.metrics.LastRunAt,
		LastRunDuration:    j.metrics.LastRunDuration,
		TotalDuration:      j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":          m.TotalRuns,
		"successful_probes":   m.SuccessfulProbes,
		"failed_probes":       m.FailedProbes,
		"directory_refreshes": m.DirectoryRefreshes,
		"route_probes":        m.RouteProbes,
		"directory_entries":   m.DirectoryEntries,
		"last_run_at":         m.LastRunAt,
		"last_run_duration":   m.LastRunDuration.String(),
		"total_duration":      m.TotalDuration.String(),
	}
}
