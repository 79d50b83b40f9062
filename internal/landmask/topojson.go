package landmask

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/rubenv/topojson"
)

// defaultObject is the object name used by the world-atlas land topologies.
const defaultObject = "land"

// decodeTopology converts the polygons of a TopoJSON object into orb
// geometry. With an empty name the "land" object is used when present,
// otherwise every object is decoded.
func decodeTopology(data []byte, name string) ([]orb.Geometry, error) {
	var topo topojson.Topology
	if err := json.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}

	names, err := selectObjects(topo.Objects, name)
	if err != nil {
		return nil, err
	}

	objects := topo.Objects
	var out []orb.Geometry
	for _, n := range names {
		obj := objects[n]
		if err := checkArcs(obj, len(topo.Arcs)); err != nil {
			return nil, fmt.Errorf("object %q: %w", n, err)
		}

		topo.Objects = map[string]*topojson.Geometry{n: obj}
		for _, f := range topo.ToGeoJSON().Features {
			switch f.Geometry.(type) {
			case orb.Polygon, orb.MultiPolygon, orb.Collection:
				out = append(out, f.Geometry)
			}
		}
	}
	return out, nil
}

func selectObjects(objects map[string]*topojson.Geometry, name string) ([]string, error) {
	if name != "" {
		if _, ok := objects[name]; !ok {
			return nil, fmt.Errorf("topology has no object %q", name)
		}
		return []string{name}, nil
	}
	if _, ok := objects[defaultObject]; ok {
		return []string{defaultObject}, nil
	}

	names := make([]string, 0, len(objects))
	for n, obj := range objects {
		if obj != nil {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// checkArcs rejects arc references past the end of the arc table. A negative
// index ^i refers to arc i traversed backwards.
func checkArcs(g *topojson.Geometry, n int) error {
	if g == nil {
		return nil
	}

	check := func(idx []int) error {
		for _, i := range idx {
			if i < 0 {
				i = ^i
			}
			if i >= n {
				return fmt.Errorf("arc index %d out of range (%d arcs)", i, n)
			}
		}
		return nil
	}

	if err := check(g.LineString); err != nil {
		return err
	}
	for _, line := range g.MultiLineString {
		if err := check(line); err != nil {
			return err
		}
	}
	for _, ring := range g.Polygon {
		if err := check(ring); err != nil {
			return err
		}
	}
	for _, poly := range g.MultiPolygon {
		for _, ring := range poly {
			if err := check(ring); err != nil {
				return err
			}
		}
	}
	for _, sub := range g.Geometries {
		if err := checkArcs(sub, n); err != nil {
			return err
		}
	}
	return nil
}
