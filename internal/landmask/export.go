package landmask

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Orb returns the polygon as an orb.Polygon, outer ring first.
func (p Polygon) Orb() orb.Polygon {
	poly := make(orb.Polygon, 0, 1+len(p.Holes))
	poly = append(poly, p.Outer)
	return append(poly, p.Holes...)
}

// MultiPolygon returns every land polygon of the mask.
func (m *Mask) MultiPolygon() orb.MultiPolygon {
	mp := make(orb.MultiPolygon, len(m.polygons))
	for i, p := range m.polygons {
		mp[i] = p.Orb()
	}
	return mp
}

// FeatureCollection exports the mask as GeoJSON. With split every polygon
// becomes its own feature, otherwise a single MultiPolygon feature is used.
func (m *Mask) FeatureCollection(split bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if !split {
		fc.Append(geojson.NewFeature(m.MultiPolygon()))
		return fc
	}
	for i, p := range m.polygons {
		f := geojson.NewFeature(p.Orb())
		f.ID = i
		fc.Append(f)
	}
	return fc
}
