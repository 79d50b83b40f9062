package service

import (
	"github.com/woozymasta/skyglow/internal/config"
	"github.com/woozymasta/skyglow/internal/darkspot"
	"github.com/woozymasta/skyglow/internal/landmask"
	"github.com/woozymasta/skyglow/internal/raster"
	"github.com/woozymasta/skyglow/internal/raster/geotiff"
	"github.com/woozymasta/skyglow/internal/render"
	"github.com/woozymasta/skyglow/internal/tilecache"
)

// FromConfig builds a service reading the GeoTIFF and land geometry named
// in cfg. remote is the optional shared tile cache tier.
func FromConfig(cfg *config.Config, remote tilecache.Store) (*Service, error) {
	mapper, err := cfg.Gradient.Build()
	if err != nil {
		return nil, err
	}

	return New(Deps{
		OpenDataset: func() (raster.Dataset, error) {
			r, err := geotiff.Open(cfg.Dataset, geotiff.Options{BlockCache: cfg.Raster.BlockCache})
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		OpenLand: func() (darkspot.LandTester, error) {
			m, err := landmask.Load(cfg.Land)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
		Renderer: render.New(mapper, cfg.Tiles.Size),
		Cache:    tilecache.NewTiered(tilecache.New(cfg.Tiles.CacheSize, cfg.Tiles.CacheTTL), remote),
		Searcher: darkspot.NewSearcher(cfg.Search),
		MaxZoom:  cfg.Tiles.MaxZoom,
	}), nil
}
