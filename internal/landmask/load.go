package landmask

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// ErrNoPolygons is returned when a source holds no usable land polygons.
var ErrNoPolygons = errors.New("no land polygons found")

// Load reads land geometry from a GeoJSON or TopoJSON file.
func Load(path string) (*Mask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read land geometry: %w", err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("polygons", m.Len()).
		Msg("Land mask built")

	return m, nil
}

// Parse decodes GeoJSON (FeatureCollection, Feature or bare geometry) or a
// TopoJSON topology, picking the format from the top-level "type" member.
func Parse(data []byte) (*Mask, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode land geometry: %w", err)
	}

	var geoms []orb.Geometry
	switch strings.ToLower(head.Type) {
	case "topology":
		g, err := decodeTopology(data, "")
		if err != nil {
			return nil, err
		}
		geoms = g

	case "featurecollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		for _, f := range fc.Features {
			if f.Geometry != nil {
				geoms = append(geoms, f.Geometry)
			}
		}

	case "feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		if f.Geometry != nil {
			geoms = append(geoms, f.Geometry)
		}

	case "polygon", "multipolygon", "geometrycollection":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		geoms = append(geoms, g.Geometry())

	default:
		return nil, fmt.Errorf("unsupported land geometry type %q", head.Type)
	}

	m := FromGeometry(geoms...)
	if m.Len() == 0 {
		return nil, ErrNoPolygons
	}
	return m, nil
}
