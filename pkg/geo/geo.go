// Package geo provides great-circle math over geographic coordinates.
package geo

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for all distance math in
// this repository. Radius filtering and the straight-line route estimate must
// agree on the same constant, so nothing else may define its own.
const EarthRadiusMeters = 6371000.0

// Coordinate represents a geographic point in decimal degrees.
// Latitude is in [-90, 90], longitude in [-180, 180].
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is within the valid degree ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceMeters returns the great-circle distance between a and b in meters
// using the haversine formula. Symmetric; zero iff a == b.
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Bearing returns the initial bearing from a to b in degrees, normalized to
// [0, 360).
func Bearing(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// compassNames in 45-degree sectors, clockwise from north.
var compassNames = [...]string{
	"north", "north-east", "east", "south-east",
	"south", "south-west", "west", "north-west",
}

// CompassDirection returns a human-readable heading for a bearing in degrees.
func CompassDirection(bearingDeg float64) string {
	deg := math.Mod(math.Mod(bearingDeg, 360)+360, 360)
	sector := int(math.Floor(deg/45+0.5)) % 8
	return compassNames[sector]
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
