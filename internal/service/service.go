// Package service exposes the tile, sky quality and dark spot operations on
// top of a lazily opened raster dataset and land mask.
package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/woozymasta/skyglow/internal/darkspot"
	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/gradient"
	"github.com/woozymasta/skyglow/internal/metrics"
	"github.com/woozymasta/skyglow/internal/raster"
	"github.com/woozymasta/skyglow/internal/render"
	"github.com/woozymasta/skyglow/internal/tilecache"
)

var (
	ErrNotReady     = errors.New("service not ready")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoData       = errors.New("no data at this coordinate")
)

// Deps are the collaborators of a Service. OpenDataset and OpenLand are
// called lazily and retried on the next request after a failure.
type Deps struct {
	OpenDataset func() (raster.Dataset, error)
	OpenLand    func() (darkspot.LandTester, error)

	Renderer *render.Renderer
	Cache    *tilecache.Tiered
	Searcher *darkspot.Searcher
	MaxZoom  int
}

// Service is shared by all request handlers.
type Service struct {
	dataset *lazy[raster.Dataset]
	land    *lazy[darkspot.LandTester]

	renderer *render.Renderer
	cache    *tilecache.Tiered
	searcher *darkspot.Searcher
	maxZoom  int

	renders singleflight.Group

	emptyMu sync.Mutex
	empty   map[string][]byte
}

// New wires a service. Missing renderer, cache or searcher get defaults.
func New(d Deps) *Service {
	if d.Renderer == nil {
		d.Renderer = render.New(gradient.DefaultMapper, render.TileSize)
	}
	if d.Cache == nil {
		d.Cache = tilecache.NewTiered(tilecache.New(tilecache.DefaultCapacity, tilecache.DefaultTTL), nil)
	}
	if d.Searcher == nil {
		d.Searcher = darkspot.NewSearcher(darkspot.DefaultParams())
	}
	if d.MaxZoom <= 0 || d.MaxZoom > geo.MaxZoom {
		d.MaxZoom = geo.MaxZoom
	}

	s := &Service{
		renderer: d.Renderer,
		cache:    d.Cache,
		searcher: d.Searcher,
		maxZoom:  d.MaxZoom,
		empty:    make(map[string][]byte),
	}
	s.dataset = newLazy(initLogged("dataset", d.OpenDataset))
	s.land = newLazy(initLogged("land", d.OpenLand))
	return s
}

func initLogged[T any](name string, open func() (T, error)) func() (T, error) {
	return func() (T, error) {
		if open == nil {
			var zero T
			return zero, fmt.Errorf("%s source not configured", name)
		}
		start := time.Now()
		v, err := open()
		if err != nil {
			metrics.InitFailuresTotal.WithLabelValues(name).Inc()
			log.Error().Err(err).Str("resource", name).Msg("Initialisation failed, will retry on next request")
			return v, err
		}
		log.Info().Str("resource", name).Dur("took", time.Since(start)).Msg("Resource ready")
		return v, nil
	}
}

func (s *Service) getDataset() (raster.Dataset, error) {
	ds, err := s.dataset.get()
	if err != nil {
		return nil, fmt.Errorf("%w: dataset: %v", ErrNotReady, err)
	}
	return ds, nil
}

func (s *Service) getLand() (darkspot.LandTester, error) {
	land, err := s.land.get()
	if err != nil {
		return nil, fmt.Errorf("%w: land mask: %v", ErrNotReady, err)
	}
	return land, nil
}

// Warm builds the dataset and land mask now instead of on first request.
func (s *Service) Warm() error {
	_, dsErr := s.getDataset()
	_, landErr := s.getLand()
	return errors.Join(dsErr, landErr)
}

// Readiness reports which lazy resources have been built, and the error of
// the last failed attempt for those that have not.
type Readiness struct {
	Dataset      bool   `json:"dataset"`
	Land         bool   `json:"land"`
	DatasetError string `json:"dataset_error,omitempty"`
	LandError    string `json:"land_error,omitempty"`
}

// Failed reports whether the last attempt to open the dataset failed.
func (r Readiness) Failed() bool { return r.DatasetError != "" }

func (s *Service) Readiness() Readiness {
	r := Readiness{Dataset: s.dataset.ready(), Land: s.land.ready()}
	if err := s.dataset.err(); err != nil {
		r.DatasetError = err.Error()
	}
	if err := s.land.err(); err != nil {
		r.LandError = err.Error()
	}
	return r
}

// MaxZoom returns the deepest zoom level served.
func (s *Service) MaxZoom() int { return s.maxZoom }

// Renderer returns the tile renderer.
func (s *Service) Renderer() *render.Renderer { return s.renderer }

// Dataset returns the opened dataset, opening it if needed.
func (s *Service) Dataset() (raster.Dataset, error) { return s.getDataset() }
