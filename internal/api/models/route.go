package models

// RouteComputeRequest is the request body for POST /v1/routes:compute.
type RouteComputeRequest struct {
	// Origin overrides the acquired visitor position when set.
	Origin *Point `json:"origin,omitempty"`

	// Destination is the practitioner position to route to (required unless
	// practitionerId is set).
	Destination *Point `json:"destination,omitempty"`

	// PractitionerID routes to a practitioner from the directory instead of
	// an explicit destination.
	PractitionerID *string `json:"practitionerId,omitempty"`
}

// RouteStep is a single turn-by-turn instruction.
type RouteStep struct {
	Instruction     string  `json:"instruction"`
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// RouteResponse is a resolved route.
type RouteResponse struct {
	// Source is "routed" for provider results, "estimated" for the
	// straight-line fallback.
	Source string `json:"source"`

	Polyline        string      `json:"polyline"`
	Geometry        []Point     `json:"geometry,omitempty"`
	DistanceMeters  float64     `json:"distanceMeters"`
	DurationSeconds float64     `json:"durationSeconds"`
	Steps           []RouteStep `json:"steps"`
	From            Point       `json:"from"`
	To              Point       `json:"to"`
	ComputedAt      Timestamp   `json:"computedAt"`

	// MapsLink is a Google Maps driving deep link for external hand-off.
	MapsLink string `json:"mapsLink"`
}
