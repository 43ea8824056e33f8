package models

// LocationAcquireRequest is the request body for POST /v1/location:acquire.
type LocationAcquireRequest struct {
	// ForceFresh bypasses any cached position fix.
	ForceFresh bool `json:"forceFresh,omitempty"`
}

// LocationResponse is an acquired visitor position.
type LocationResponse struct {
	Position       Point     `json:"position"`
	AccuracyMeters float64   `json:"accuracyMeters"`
	CapturedAt     Timestamp `json:"capturedAt"`
	AgeSeconds     float64   `json:"ageSeconds"`

	// Degraded is true when the fix accuracy is worse than 100 m.
	Degraded bool `json:"degraded"`

	// PrecisionWarning carries user-facing copy when the fix is degraded.
	PrecisionWarning string `json:"precisionWarning,omitempty"`
}
