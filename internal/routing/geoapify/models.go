package geoapify

// routingResponse is the Geoapify routing API response (GeoJSON FeatureCollection).
type routingResponse struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string     `json:"type"`
	Geometry   geometry   `json:"geometry"`
	Properties properties `json:"properties"`
}

// geometry carries the route shape. The API returns MultiLineString with
// positions in [lon, lat] order.
type geometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

type properties struct {
	Mode     string  `json:"mode"`
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`
	Legs     []leg   `json:"legs"`
}

type leg struct {
	Distance float64   `json:"distance"`
	Time     float64   `json:"time"`
	Steps    []apiStep `json:"steps"`
}

type apiStep struct {
	FromIndex   int     `json:"from_index"`
	ToIndex     int     `json:"to_index"`
	Distance    float64 `json:"distance"`
	Time        float64 `json:"time"`
	Instruction struct {
		Text string `json:"text"`
	} `json:"instruction"`
}

// errorResponse is the API error payload.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}
