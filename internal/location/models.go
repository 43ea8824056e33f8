// Package location acquires a best-effort user position with accuracy
// metadata and degraded-accuracy fallback.
package location

import (
	"context"
	"errors"
	"time"

	"github.com/caremap/caremap/pkg/geo"
)

// Sentinel errors classifying why an acquisition attempt failed. Callers use
// these for cause-specific user messaging; see Guidance.
var (
	// ErrPermissionDenied indicates the user or platform refused access to
	// positioning.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrPositionUnavailable indicates the positioning service could not
	// produce a fix.
	ErrPositionUnavailable = errors.New("position unavailable")
	// ErrTimeout indicates the attempt exceeded its bounded wait.
	ErrTimeout = errors.New("position request timed out")
	// ErrUnsupported indicates the runtime has no positioning capability.
	ErrUnsupported = errors.New("positioning not supported")
)

// Accuracy thresholds in meters. Samples beyond them are flagged, never
// rejected.
const (
	// AccuracyWarnMeters is the radius beyond which a sample carries a
	// precision warning.
	AccuracyWarnMeters = 100.0
	// AccuracySevereMeters is the radius beyond which the warning copy is
	// escalated. Use of the sample is still not blocked.
	AccuracySevereMeters = 200.0
)

// PositionSample is one successful position fix. A newer successful sample
// supersedes an older one; samples are never merged.
type PositionSample struct {
	Coordinate     geo.Coordinate
	AccuracyMeters float64
	CapturedAt     time.Time
}

// Age returns how long ago the sample was captured.
func (s *PositionSample) Age() time.Duration {
	return time.Since(s.CapturedAt)
}

// Degraded reports whether the sample's accuracy is beyond the warning
// threshold.
func (s *PositionSample) Degraded() bool {
	return s.AccuracyMeters > AccuracyWarnMeters
}

// PrecisionWarning returns user-facing copy describing a degraded sample, or
// empty when the accuracy is acceptable.
func (s *PositionSample) PrecisionWarning() string {
	switch {
	case s.AccuracyMeters > AccuracySevereMeters:
		return "Your position is very approximate. Results within the radius filter may be off; move to an open area for a better fix."
	case s.AccuracyMeters > AccuracyWarnMeters:
		return "Your position accuracy is low. For better results, move to an open area with a clear sky view."
	default:
		return ""
	}
}

// Options control a single provider attempt.
type Options struct {
	// HighAccuracy requests a precise fix; false accepts a coarse one.
	HighAccuracy bool

	// Timeout bounds the wait for the fix.
	Timeout time.Duration

	// MaxAge is the oldest cached fix the provider may return instead of
	// reading the sensor. Zero forces a fresh read.
	MaxAge time.Duration
}

// Provider is the injected positioning capability. Implementations must
// classify failures with the package sentinel errors.
type Provider interface {
	CurrentPosition(ctx context.Context, opts Options) (*PositionSample, error)
}

// Guidance maps an acquisition error to actionable user-facing copy.
func Guidance(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Please enable location permissions in your browser or device settings."
	case errors.Is(err, ErrPositionUnavailable):
		return "Location information is unavailable. Make sure location services are enabled on your device."
	case errors.Is(err, ErrTimeout):
		return "Location request timed out. Go outdoors or near a window for a better signal and try again."
	case errors.Is(err, ErrUnsupported):
		return "Positioning is not supported here. Please use a browser or device with location support."
	default:
		return "Could not determine your location. Please try again later."
	}
}
