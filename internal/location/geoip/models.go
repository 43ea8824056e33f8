package geoip

// defaultAccuracyMeters is assumed when the API omits an accuracy radius.
// IP geolocation is city-level, so this always trips the precision warning.
const defaultAccuracyMeters = 5000.0

// ipinfoResponse is the geolocation API response.
type ipinfoResponse struct {
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	AccuracyRadiusMeters float64 `json:"accuracy_radius_meters"`
	City                 struct {
		Name string `json:"name"`
	} `json:"city"`
	Country struct {
		ISOCode string `json:"iso_code"`
	} `json:"country"`
}
