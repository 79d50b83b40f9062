package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for all distance math.
const EarthRadiusKm = 6371.0

// Kilometres per degree used to turn a search radius into a lat/lon box.
const (
	kmPerDegreeLat = 110.574
	kmPerDegreeLon = 111.32
	// cosine floor keeps the longitude delta finite near the poles
	minLonScale = 0.2
)

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKm
}

// RadiusBounds returns the lat/lon box enclosing a circle of radiusKm around
// the point. The box is not clamped to valid coordinate ranges.
func RadiusBounds(lat, lon, radiusKm float64) Bounds {
	latDelta := radiusKm / kmPerDegreeLat
	scale := math.Max(math.Abs(math.Cos(lat*math.Pi/180)), minLonScale)
	lonDelta := radiusKm / (kmPerDegreeLon * scale)

	return Bounds{
		MinLon: lon - lonDelta,
		MaxLon: lon + lonDelta,
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
	}
}
