// Package darkspot finds the darkest land locations around a point.
package darkspot

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/photometry"
	"github.com/woozymasta/skyglow/internal/raster"
)

var (
	ErrInvalidPoint  = errors.New("invalid lat/lon")
	ErrInvalidRadius = errors.New("invalid search radius")
)

// Params are the tuning constants of a search.
type Params struct {
	// MaxSamples bounds the number of raster cells inspected per search.
	MaxSamples int `yaml:"max_samples"`
	// MaxResults is the number of spots returned at most.
	MaxResults int `yaml:"max_results"`
	// Selected spots are at least max(MinSeparationKm, radius/SeparationDivisor) apart.
	MinSeparationKm   float64 `yaml:"min_separation_km"`
	SeparationDivisor float64 `yaml:"separation_divisor"`

	DefaultRadiusKm float64 `yaml:"default_radius_km"`
	MinRadiusKm     float64 `yaml:"min_radius_km"`
	MaxRadiusKm     float64 `yaml:"max_radius_km"`
}

// DefaultParams returns the stock search constants.
func DefaultParams() Params {
	return Params{
		MaxSamples:        9000,
		MaxResults:        12,
		MinSeparationKm:   3,
		SeparationDivisor: 8,
		DefaultRadiusKm:   25,
		MinRadiusKm:       1,
		MaxRadiusKm:       250,
	}
}

// Validate checks that the parameters describe a usable search.
func (p Params) Validate() error {
	switch {
	case p.MaxSamples <= 0:
		return fmt.Errorf("max_samples must be positive, got %d", p.MaxSamples)
	case p.MaxResults <= 0:
		return fmt.Errorf("max_results must be positive, got %d", p.MaxResults)
	case p.MinSeparationKm < 0 || p.SeparationDivisor <= 0:
		return errors.New("separation must be non-negative with a positive divisor")
	case p.MinRadiusKm <= 0 || p.MaxRadiusKm < p.MinRadiusKm:
		return fmt.Errorf("invalid radius range [%g, %g]", p.MinRadiusKm, p.MaxRadiusKm)
	case p.DefaultRadiusKm < p.MinRadiusKm || p.DefaultRadiusKm > p.MaxRadiusKm:
		return fmt.Errorf("default radius %g outside [%g, %g]", p.DefaultRadiusKm, p.MinRadiusKm, p.MaxRadiusKm)
	}
	return nil
}

// LandTester reports whether a point is over land.
type LandTester interface {
	IsLand(lon, lat float64) bool
}

// Spot is one selected dark location. Values are rounded for display and
// the ranking operates on the rounded values.
type Spot struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Level      int     `json:"level"`
	LightValue float64 `json:"light_value"`
	SQM        float64 `json:"sqm"`
	DistanceKm float64 `json:"distance_km"`
}

type Origin struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Result struct {
	Origin   Origin  `json:"origin"`
	RadiusKm float64 `json:"radius_km"`
	Spots    []Spot  `json:"spots"`

	// Stride and Candidates describe the scan, for logs and metrics.
	Stride     int `json:"-"`
	Candidates int `json:"-"`
}

// Searcher runs dark-spot searches with fixed parameters.
type Searcher struct {
	params Params
}

func NewSearcher(p Params) *Searcher {
	return &Searcher{params: p}
}

func (s *Searcher) Params() Params { return s.params }

// Radius normalises a requested radius: zero selects the default and the
// result is clamped to the configured range. Non-finite values are rejected.
func (s *Searcher) Radius(km float64) (float64, error) {
	if !geo.Finite(km) {
		return 0, ErrInvalidRadius
	}
	if km == 0 {
		km = s.params.DefaultRadiusKm
	}
	return geo.Clamp(km, s.params.MinRadiusKm, s.params.MaxRadiusKm), nil
}

// MinSeparation returns the minimum distance between two selected spots.
func (s *Searcher) MinSeparation(radiusKm float64) float64 {
	return math.Max(s.params.MinSeparationKm, radiusKm/s.params.SeparationDivisor)
}

// Stride returns the sampling step that keeps a window of area cells within
// the sample budget.
func (s *Searcher) Stride(area int) int {
	return max(1, int(math.Floor(math.Sqrt(float64(area)/float64(s.params.MaxSamples)))))
}

// Search scans ds within radiusKm of lat/lon. A nil land tester accepts every
// cell. The point must lie inside the dataset bounds.
func (s *Searcher) Search(ds raster.Dataset, land LandTester, lat, lon, radiusKm float64) (Result, error) {
	if !geo.ValidLatLon(lat, lon) {
		return Result{}, ErrInvalidPoint
	}
	radius, err := s.Radius(radiusKm)
	if err != nil {
		return Result{}, err
	}
	if !ds.Bounds().Contains(lon, lat) {
		return Result{}, raster.ErrOutOfBounds
	}

	res := Result{
		Origin:   Origin{Lat: geo.Round(lat, 5), Lon: geo.Round(lon, 5)},
		RadiusKm: radius,
		Spots:    []Spot{},
	}

	w, ok := raster.WindowFor(ds, geo.RadiusBounds(lat, lon, radius))
	if !ok || w.Empty() {
		return res, nil
	}

	data, err := ds.ReadWindow(w, w.Width(), w.Height(), raster.Nearest)
	if err != nil {
		return Result{}, fmt.Errorf("scan window %s: %w", w, err)
	}
	if len(data) != w.Area() {
		return res, nil
	}

	stride := s.Stride(w.Area())
	res.Stride = stride

	candidates := s.collect(ds, land, w, data, stride, lat, lon, radius)
	res.Candidates = len(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.LightValue != b.LightValue {
			return a.LightValue < b.LightValue
		}
		return a.DistanceKm < b.DistanceKm
	})

	res.Spots = s.diversify(candidates, radius)
	return res, nil
}

func (s *Searcher) collect(ds raster.Dataset, land LandTester, w raster.Window, data []float32, stride int, lat, lon, radius float64) []Spot {
	var out []Spot
	width := w.Width()

	for row := 0; row < w.Height(); row += stride {
		for col := 0; col < width; col += stride {
			cellLon, cellLat := raster.CellCenter(ds, w.ColStart+col, w.RowStart+row)

			dist := geo.HaversineKm(lat, lon, cellLat, cellLon)
			if dist > radius {
				continue
			}
			if land != nil && !land.IsLand(cellLon, cellLat) {
				continue
			}

			artificial := float64(data[row*width+col])
			r, ok := photometry.Measure(artificial)
			if !ok {
				continue
			}

			out = append(out, Spot{
				Lat:        geo.Round(cellLat, 5),
				Lon:        geo.Round(cellLon, 5),
				Level:      int(r.Bortle),
				LightValue: geo.Round(artificial, 3),
				SQM:        geo.Round(r.SQM, 2),
				DistanceKm: geo.Round(dist, 1),
			})
		}
	}
	return out
}

// diversify greedily keeps candidates in rank order while they stay at least
// the minimum separation away from every spot already kept.
func (s *Searcher) diversify(ranked []Spot, radius float64) []Spot {
	minSep := s.MinSeparation(radius)
	selected := make([]Spot, 0, s.params.MaxResults)

	for _, c := range ranked {
		farEnough := true
		for _, e := range selected {
			if geo.HaversineKm(e.Lat, e.Lon, c.Lat, c.Lon) < minSep {
				farEnough = false
				break
			}
		}
		if !farEnough {
			continue
		}
		selected = append(selected, c)
		if len(selected) >= s.params.MaxResults {
			break
		}
	}
	return selected
}
