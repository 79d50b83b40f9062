// Package geo handles geographic bounds, tile addressing and distances.
package geo

import "math"

// mercatorToLat converts a Mercator ordinate t (radians, -PI..PI) back to
// latitude in degrees. sinh is expanded to keep the top and bottom tile
// edges bit-identical between neighbours.
func mercatorToLat(t float64) float64 {
	return (180.0 / math.Pi) * math.Atan(0.5*(math.Exp(t)-math.Exp(-t)))
}

// Clamp limits v to the closed range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt limits v to the closed range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds v to the given number of decimals. Halves round up, towards
// positive infinity, for negative values too.
func Round(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Floor(v*factor+0.5) / factor
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidLatLon reports whether the point is a finite WGS84 coordinate.
func ValidLatLon(lat, lon float64) bool {
	return Finite(lat) && Finite(lon) &&
		lat >= -90 && lat <= 90 &&
		lon >= -180 && lon <= 180
}
