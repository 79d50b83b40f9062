// Package processor pre-renders light pollution tile pyramids to disk.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/metrics"
	"github.com/woozymasta/skyglow/internal/raster"
	"github.com/woozymasta/skyglow/internal/render"
)

// DefaultConcurrency is the number of tiles rendered in parallel.
const DefaultConcurrency = 8

// Options control a pyramid run.
type Options struct {
	OutDir      string
	MinZoom     int
	MaxZoom     int
	Concurrency int
	// Force overwrites tiles that already exist on disk.
	Force bool
	// SkipEmpty leaves tiles outside the dataset unwritten and does not
	// descend into them.
	SkipEmpty bool
}

func (o Options) validate() error {
	switch {
	case o.OutDir == "":
		return errors.New("output directory is required")
	case o.MinZoom < 0 || o.MaxZoom < o.MinZoom || o.MaxZoom > geo.MaxZoom:
		return fmt.Errorf("invalid zoom range %d-%d", o.MinZoom, o.MaxZoom)
	}
	return nil
}

// Stats counts tile outcomes of a run.
type Stats struct {
	Written int64
	Skipped int64
	Empty   int64
	Failed  int64
}

type result struct {
	Coord geo.TileCoordinate
	Valid bool
}

type outcome string

const (
	written outcome = "written"
	skipped outcome = "skipped"
	empty   outcome = "empty"
	failed  outcome = "failed"
)

// Generator renders tiles of one dataset.
type Generator struct {
	ds       raster.Dataset
	renderer *render.Renderer
	enc      render.Encoder

	emptyTile []byte
}

// NewGenerator prepares a generator; the transparent tile is encoded once.
func NewGenerator(ds raster.Dataset, renderer *render.Renderer, enc render.Encoder) (*Generator, error) {
	data, err := render.EncodeBytes(enc, renderer.Empty())
	if err != nil {
		return nil, fmt.Errorf("encode empty tile: %w", err)
	}
	return &Generator{ds: ds, renderer: renderer, enc: enc, emptyTile: data}, nil
}

// TilePath returns <dir>/z/x/y.<ext>.
func (g *Generator) TilePath(dir string, t geo.TileCoordinate) string {
	return filepath.Join(dir, strconv.Itoa(t.Z), strconv.Itoa(t.X), strconv.Itoa(t.Y)+"."+g.enc.Ext())
}

// Pyramid renders every tile of zoom levels [MinZoom, MaxZoom] into OutDir.
func (g *Generator) Pyramid(ctx context.Context, opts Options) (Stats, error) {
	if err := opts.validate(); err != nil {
		return Stats{}, err
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	log.Info().
		Str("out", opts.OutDir).
		Int("min_zoom", opts.MinZoom).
		Int("max_zoom", opts.MaxZoom).
		Int("concurrency", opts.Concurrency).
		Bool("force", opts.Force).
		Bool("skip_empty", opts.SkipEmpty).
		Msg("Starting tile pyramid")

	var stats Stats
	currentLevelTiles := []geo.TileCoordinate{{}}

	for z := 0; z <= opts.MaxZoom; z++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if len(currentLevelTiles) == 0 {
			log.Info().Int("zoom", z).Msg("No tiles intersect the dataset, stopping")
			break
		}

		var validTiles []geo.TileCoordinate
		if z < opts.MinZoom {
			validTiles = g.intersecting(currentLevelTiles)
		} else {
			start := time.Now()
			validTiles = g.processBatch(ctx, currentLevelTiles, opts, &stats)
			log.Info().
				Int("zoom", z).
				Int("tiles", len(currentLevelTiles)).
				Dur("took", time.Since(start)).
				Msg("Finished zoom level")
		}

		if !opts.SkipEmpty {
			validTiles = currentLevelTiles
		}
		nextLevelTiles := make([]geo.TileCoordinate, 0, len(validTiles)*4)
		for _, t := range validTiles {
			children := t.Children()
			nextLevelTiles = append(nextLevelTiles, children[:]...)
		}
		currentLevelTiles = nextLevelTiles
	}

	log.Info().
		Int64("written", stats.Written).
		Int64("skipped", stats.Skipped).
		Int64("empty", stats.Empty).
		Int64("failed", stats.Failed).
		Msg("Tile pyramid finished")

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d tiles failed", stats.Failed)
	}
	return stats, nil
}

func (g *Generator) intersecting(tiles []geo.TileCoordinate) []geo.TileCoordinate {
	b := g.ds.Bounds()
	out := make([]geo.TileCoordinate, 0, len(tiles))
	for _, t := range tiles {
		if t.Bounds().Intersects(b) {
			out = append(out, t)
		}
	}
	return out
}

// processBatch renders one zoom level and returns the tiles that hold data.
func (g *Generator) processBatch(ctx context.Context, tiles []geo.TileCoordinate, opts Options, stats *Stats) []geo.TileCoordinate {
	results := make([]result, len(tiles))
	p := pool.New().WithMaxGoroutines(opts.Concurrency)

	for i, t := range tiles {
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			out, err := g.writeTile(t, opts)
			if err != nil {
				log.Error().Err(err).Str("tile", t.String()).Msg("Failed to write tile")
			}
			record(stats, out)
			results[i] = result{Coord: t, Valid: out != empty && out != failed}
		})
	}
	p.Wait()

	var valid []geo.TileCoordinate
	for _, res := range results {
		if res.Valid {
			valid = append(valid, res.Coord)
		}
	}
	return valid
}

func (g *Generator) writeTile(t geo.TileCoordinate, opts Options) (outcome, error) {
	outPath := g.TilePath(opts.OutDir, t)

	// Check existence if not forcing overwrite
	if !opts.Force {
		if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
			return skipped, nil
		}
	}

	img, isEmpty := g.renderer.Render(g.ds, t)
	if isEmpty && opts.SkipEmpty {
		return empty, nil
	}

	data := g.emptyTile
	if !isEmpty {
		var err error
		if data, err = render.EncodeBytes(g.enc, img); err != nil {
			return failed, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return failed, err
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return failed, err
	}

	if isEmpty {
		return empty, nil
	}
	return written, nil
}

func record(stats *Stats, out outcome) {
	metrics.PregenTilesTotal.WithLabelValues(string(out)).Inc()
	switch out {
	case written:
		atomic.AddInt64(&stats.Written, 1)
	case skipped:
		atomic.AddInt64(&stats.Skipped, 1)
	case empty:
		atomic.AddInt64(&stats.Empty, 1)
	case failed:
		atomic.AddInt64(&stats.Failed, 1)
	}
}
