package models

import (
	"math"

	"github.com/golang/geo/s2"
)

// Point is a WGS84 position in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LatLng converts p for spherical geometry.
func (p Point) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}

// Valid reports whether p is a finite position inside the WGS84 range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.LatLng().IsValid()
}

// earthRadiusKm is the mean Earth radius.
const earthRadiusKm = 6371.0088

// DistanceKm is the great-circle distance between p and q.
func (p Point) DistanceKm(q Point) float64 {
	return p.LatLng().Distance(q.LatLng()).Radians() * earthRadiusKm
}
