// Package landmask answers "is this lon/lat over land" from polygon geometry.
package landmask

import (
	"math"

	"github.com/paulmach/orb"
)

// Polygon is one land polygon: an outer ring, optional holes and the tight
// bound of the outer ring used to prune containment tests.
type Polygon struct {
	Outer orb.Ring
	Holes []orb.Ring
	Bound orb.Bound
}

// Mask is an immutable set of land polygons, safe for concurrent use.
type Mask struct {
	polygons []Polygon
}

// New builds a mask from polygons. Polygons with an empty outer ring or
// without a single finite vertex are dropped.
func New(polys ...orb.Polygon) *Mask {
	m := &Mask{polygons: make([]Polygon, 0, len(polys))}
	for _, p := range polys {
		if len(p) == 0 || len(p[0]) == 0 {
			continue
		}
		bound, ok := ringBound(p[0])
		if !ok {
			continue
		}
		m.polygons = append(m.polygons, Polygon{Outer: p[0], Holes: p[1:], Bound: bound})
	}
	return m
}

// FromGeometry collects every Polygon and MultiPolygon (including those nested
// in collections) into a mask. Other geometry types are ignored.
func FromGeometry(geoms ...orb.Geometry) *Mask {
	var polys []orb.Polygon
	for _, g := range geoms {
		polys = collectPolygons(polys, g)
	}
	return New(polys...)
}

func collectPolygons(dst []orb.Polygon, g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		return append(dst, v)
	case orb.MultiPolygon:
		return append(dst, v...)
	case orb.Collection:
		for _, sub := range v {
			dst = collectPolygons(dst, sub)
		}
	}
	return dst
}

// Len returns the number of usable polygons.
func (m *Mask) Len() int {
	return len(m.polygons)
}

// Polygons exposes the prepared polygons. The slice must not be modified.
func (m *Mask) Polygons() []Polygon {
	return m.polygons
}

// IsLand reports whether the point lies inside some polygon's outer ring and
// outside all of that polygon's holes.
func (m *Mask) IsLand(lon, lat float64) bool {
	for i := range m.polygons {
		p := &m.polygons[i]
		if lon < p.Bound.Min[0] || lon > p.Bound.Max[0] ||
			lat < p.Bound.Min[1] || lat > p.Bound.Max[1] {
			continue
		}
		if polygonContains(p, lon, lat) {
			return true
		}
	}
	return false
}

func polygonContains(p *Polygon, lon, lat float64) bool {
	if !ringContains(p.Outer, lon, lat) {
		return false
	}
	for _, hole := range p.Holes {
		if ringContains(hole, lon, lat) {
			return false
		}
	}
	return true
}

// ringContains is an even-odd ray cast towards +lon. Edges whose endpoints
// are on the same side of lat (including horizontal edges) never count.
func ringContains(ring orb.Ring, lon, lat float64) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > lat) != (yj > lat) && lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// ringBound returns the bound of the finite vertices of r.
func ringBound(r orb.Ring) (orb.Bound, bool) {
	b := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	for _, pt := range r {
		lon, lat := pt[0], pt[1]
		if !finite(lon) || !finite(lat) {
			continue
		}
		b.Min[0] = math.Min(b.Min[0], lon)
		b.Min[1] = math.Min(b.Min[1], lat)
		b.Max[0] = math.Max(b.Max[0], lon)
		b.Max[1] = math.Max(b.Max[1], lat)
	}
	if !finite(b.Min[0]) || !finite(b.Max[0]) || !finite(b.Min[1]) || !finite(b.Max[1]) {
		return orb.Bound{}, false
	}
	return b, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
