// Package config handles configuration loading, defaults and validation.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/woozymasta/skyglow/internal/darkspot"
	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/gradient"
)

// Config represents the root configuration file structure.
type Config struct {
	// Dataset is the path of the artificial sky brightness GeoTIFF.
	Dataset string `yaml:"dataset"`
	// Land is the path of the GeoJSON or TopoJSON land geometry.
	Land string `yaml:"land"`
	// Warmup opens the dataset and builds the land mask at startup.
	Warmup bool `yaml:"warmup"`

	Tiles    Tiles           `yaml:"tiles"`
	Gradient Gradient        `yaml:"gradient"`
	Search   darkspot.Params `yaml:"search"`
	Raster   Raster          `yaml:"raster"`
	Redis    Redis           `yaml:"redis"`
	HTTP     HTTP            `yaml:"http"`
}

type Tiles struct {
	Size      int           `yaml:"size"`
	Format    string        `yaml:"format"` // png or webp
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	MaxZoom   int           `yaml:"max_zoom"`
}

type Gradient struct {
	MinSQM float64 `yaml:"min_sqm"`
	MaxSQM float64 `yaml:"max_sqm"`
	// Stops overrides the built-in green to red ramp.
	Stops []Stop `yaml:"stops,omitempty"`
}

// Stop is a gradient stop with an [r, g, b, a] color.
type Stop struct {
	T     float64  `yaml:"t"`
	Color [4]uint8 `yaml:"color"`
}

type Raster struct {
	// BlockCache is the number of decoded GeoTIFF blocks kept in memory.
	BlockCache int64 `yaml:"block_cache"`
}

// Redis configures the optional shared tile cache. An empty Addr disables it.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// HTTP holds Cache-Control max-age values per endpoint.
type HTTP struct {
	TileMaxAge       time.Duration `yaml:"tile_max_age"`
	SkyQualityMaxAge time.Duration `yaml:"skyquality_max_age"`
	DarkSpotsMaxAge  time.Duration `yaml:"darkspots_max_age"`
}

// Default returns the configuration used for missing keys.
func Default() *Config {
	return &Config{
		Dataset: "data/World_Atlas_2015.tif",
		Land:    "data/land-10m.json",
		Tiles: Tiles{
			Size:      256,
			Format:    "png",
			CacheSize: 256,
			CacheTTL:  10 * time.Minute,
			MaxZoom:   12,
		},
		Gradient: Gradient{
			MinSQM: gradient.DefaultMinSQM,
			MaxSQM: gradient.DefaultMaxSQM,
		},
		Search: darkspot.DefaultParams(),
		Raster: Raster{BlockCache: 512},
		Redis: Redis{
			Prefix: "skyglow:tile:",
			TTL:    24 * time.Hour,
		},
		HTTP: HTTP{
			TileMaxAge:       time.Hour,
			SkyQualityMaxAge: 24 * time.Hour,
			DarkSpotsMaxAge:  10 * time.Minute,
		},
	}
}

// Load reads the YAML configuration at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Dataset == "" {
		errs = append(errs, errors.New("dataset path is required"))
	}
	if c.Tiles.Size <= 0 || c.Tiles.Size > 4096 {
		errs = append(errs, fmt.Errorf("tiles.size must be in (0, 4096], got %d", c.Tiles.Size))
	}
	if c.Tiles.Format != "png" && c.Tiles.Format != "webp" {
		errs = append(errs, fmt.Errorf("tiles.format must be png or webp, got %q", c.Tiles.Format))
	}
	if c.Tiles.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("tiles.cache_size must be positive, got %d", c.Tiles.CacheSize))
	}
	if c.Tiles.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("tiles.cache_ttl must be positive, got %s", c.Tiles.CacheTTL))
	}
	if c.Tiles.MaxZoom < 0 || c.Tiles.MaxZoom > geo.MaxZoom {
		errs = append(errs, fmt.Errorf("tiles.max_zoom must be in [0, %d], got %d", geo.MaxZoom, c.Tiles.MaxZoom))
	}
	if !(c.Gradient.MinSQM < c.Gradient.MaxSQM) {
		errs = append(errs, fmt.Errorf("gradient.min_sqm %g must be below max_sqm %g", c.Gradient.MinSQM, c.Gradient.MaxSQM))
	}
	if _, err := c.Gradient.Build(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Search.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("search: %w", err))
	}
	if c.Raster.BlockCache <= 0 {
		errs = append(errs, fmt.Errorf("raster.block_cache must be positive, got %d", c.Raster.BlockCache))
	}

	return errors.Join(errs...)
}

// Build returns the color mapper described by the gradient section.
func (g Gradient) Build() (gradient.Mapper, error) {
	grad := gradient.Default
	if len(g.Stops) > 0 {
		stops := make([]gradient.Stop, len(g.Stops))
		for i, s := range g.Stops {
			stops[i] = gradient.Stop{T: s.T, Color: color.NRGBA{R: s.Color[0], G: s.Color[1], B: s.Color[2], A: s.Color[3]}}
		}
		var err error
		if grad, err = gradient.New(stops...); err != nil {
			return gradient.Mapper{}, fmt.Errorf("gradient.stops: %w", err)
		}
	}
	return gradient.Mapper{Gradient: grad, MinSQM: g.MinSQM, MaxSQM: g.MaxSQM}, nil
}
