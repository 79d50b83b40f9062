package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/woozymasta/skyglow/internal/darkspot"
	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/metrics"
	"github.com/woozymasta/skyglow/internal/photometry"
	"github.com/woozymasta/skyglow/internal/raster"
)

// SkyQuality is the point query answer. Field names are part of the public
// JSON contract.
type SkyQuality struct {
	Coordinates [2]float64 `json:"Coordinates"`
	SQM         float64    `json:"SQM"`
	Brightness  float64    `json:"Brightness_mcd_m2"`
	Artificial  int64      `json:"Artif_bright_uccd_m2"`
	Ratio       float64    `json:"Ratio"`
	Bortle      string     `json:"Bortle"`
}

func newSkyQuality(lat, lon float64, r photometry.Reading) SkyQuality {
	return SkyQuality{
		Coordinates: [2]float64{geo.Round(lat, 5), geo.Round(lon, 5)},
		SQM:         geo.Round(r.SQM, 2),
		Brightness:  geo.Round(r.Total, 1),
		Artificial:  int64(math.Round(r.Artificial * 1000)),
		Ratio:       geo.Round(r.Ratio, 1),
		Bortle:      r.Bortle.Label(),
	}
}

// SkyQuality samples the dataset at lat/lon. Points outside the dataset
// return raster.ErrOutOfBounds, points without a measurement ErrNoData.
func (s *Service) SkyQuality(lat, lon float64) (SkyQuality, error) {
	if !geo.ValidLatLon(lat, lon) {
		return SkyQuality{}, fmt.Errorf("%w: lat/lon %g,%g", ErrInvalidInput, lat, lon)
	}

	ds, err := s.getDataset()
	if err != nil {
		return SkyQuality{}, err
	}

	v, err := raster.SamplePoint(ds, lon, lat)
	if err != nil {
		if errors.Is(err, raster.ErrOutOfBounds) {
			return SkyQuality{}, err
		}
		return SkyQuality{}, fmt.Errorf("sample %g,%g: %w", lat, lon, err)
	}

	r, ok := photometry.Measure(float64(v))
	if !ok {
		return SkyQuality{}, ErrNoData
	}
	return newSkyQuality(lat, lon, r), nil
}

// FindDarkSpots searches the darkest land cells within radiusKm of
// lat/lon. A zero radius selects the default.
func (s *Service) FindDarkSpots(lat, lon, radiusKm float64) (darkspot.Result, error) {
	if !geo.ValidLatLon(lat, lon) {
		return darkspot.Result{}, fmt.Errorf("%w: lat/lon %g,%g", ErrInvalidInput, lat, lon)
	}
	if _, err := s.searcher.Radius(radiusKm); err != nil {
		return darkspot.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ds, err := s.getDataset()
	if err != nil {
		return darkspot.Result{}, err
	}
	land, err := s.getLand()
	if err != nil {
		return darkspot.Result{}, err
	}

	start := time.Now()
	res, err := s.searcher.Search(ds, land, lat, lon, radiusKm)
	if err != nil {
		return darkspot.Result{}, err
	}
	metrics.DarkSpotDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	metrics.DarkSpotCandidates.Observe(float64(res.Candidates))
	return res, nil
}
