package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Bounds is an axis-aligned lon/lat rectangle in degrees.
type Bounds struct {
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
}

// Valid reports whether the rectangle has positive, finite extent.
func (b Bounds) Valid() bool {
	return Finite(b.MinLon) && Finite(b.MaxLon) && Finite(b.MinLat) && Finite(b.MaxLat) &&
		b.MinLon < b.MaxLon && b.MinLat < b.MaxLat
}

// Contains reports whether the point lies inside or on the edge of b.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Intersects reports whether a and b overlap with positive area.
// Rectangles that only touch along an edge do not intersect.
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinLon < o.MaxLon &&
		b.MaxLon > o.MinLon &&
		b.MinLat < o.MaxLat &&
		b.MaxLat > o.MinLat
}

// Clip clamps every edge of b into o. The result may be degenerate when the
// two rectangles do not intersect.
func (b Bounds) Clip(o Bounds) Bounds {
	return Bounds{
		MinLon: Clamp(b.MinLon, o.MinLon, o.MaxLon),
		MaxLon: Clamp(b.MaxLon, o.MinLon, o.MaxLon),
		MinLat: Clamp(b.MinLat, o.MinLat, o.MaxLat),
		MaxLat: Clamp(b.MaxLat, o.MinLat, o.MaxLat),
	}
}

// Bound converts b to an orb.Bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// FromBound converts an orb.Bound into Bounds.
func FromBound(b orb.Bound) Bounds {
	return Bounds{MinLon: b.Min.Lon(), MaxLon: b.Max.Lon(), MinLat: b.Min.Lat(), MaxLat: b.Max.Lat()}
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%g,%g,%g,%g]", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}
