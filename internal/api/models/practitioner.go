package models

// PractitionerResult is a single practitioner in a search response.
type PractitionerResult struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Specialty       string   `json:"specialty"`
	City            string   `json:"city"`
	ExperienceYears int      `json:"experienceYears"`
	Languages       []string `json:"languages,omitempty"`
	Verified        bool     `json:"verified"`

	// Location is omitted for practitioners without a published position.
	Location *Point `json:"location,omitempty"`

	// DistanceMeters is present only when the search had an origin position
	// and the practitioner has a location.
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
}

// PractitionerSearchResponse is the response for GET /v1/practitioners.
type PractitionerSearchResponse struct {
	Results       []PractitionerResult `json:"results"`
	Facets        PractitionerFacets   `json:"facets"`
	TotalCount    int                  `json:"totalCount"`
	FilteredCount int                  `json:"filteredCount"`

	// Position is the visitor position the distance filter used, if any.
	Position *LocationResponse `json:"position,omitempty"`
}

// PractitionerFacets lists the distinct filter values present in the directory.
type PractitionerFacets struct {
	Specialties []string `json:"specialties"`
	Cities      []string `json:"cities"`
}
