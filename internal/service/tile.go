package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/metrics"
	"github.com/woozymasta/skyglow/internal/render"
	"github.com/woozymasta/skyglow/internal/tilecache"
)

// Tile is an encoded map tile.
type Tile struct {
	Data        []byte
	ContentType string
	Empty       bool
	Source      tilecache.Source
}

// TileKey is the cache key of tile t in the encoder's format.
func TileKey(t geo.TileCoordinate, enc render.Encoder) string {
	return fmt.Sprintf("%d/%d/%d.%s", t.Z, t.X, t.Y, enc.Ext())
}

// Tile returns tile t encoded with enc, from cache when possible. Read
// failures and tiles outside the dataset yield the transparent tile, which
// is cached under the tile's key like any other.
func (s *Service) Tile(ctx context.Context, t geo.TileCoordinate, enc render.Encoder) (Tile, error) {
	if !t.Valid() || t.Z > s.maxZoom {
		return Tile{}, fmt.Errorf("%w: tile %s", ErrInvalidInput, t)
	}

	key := TileKey(t, enc)
	if data, src := s.cache.Get(ctx, key); src != tilecache.Miss {
		metrics.TileCacheTotal.WithLabelValues(src.String()).Inc()
		return Tile{Data: data, ContentType: enc.ContentType(), Source: src}, nil
	}
	metrics.TileCacheTotal.WithLabelValues(tilecache.Miss.String()).Inc()

	ds, err := s.getDataset()
	if err != nil {
		return Tile{}, err
	}

	type rendered struct {
		data  []byte
		empty bool
	}
	v, err, _ := s.renders.Do(key, func() (any, error) {
		start := time.Now()
		img, empty := s.renderer.Render(ds, t)
		if empty {
			data, err := s.emptyTile(enc)
			if err != nil {
				return nil, err
			}
			s.cache.Put(ctx, key, data)
			return rendered{data: data, empty: true}, nil
		}

		data, err := render.EncodeBytes(enc, img)
		if err != nil {
			return nil, fmt.Errorf("encode tile %s: %w", t, err)
		}
		metrics.TileRenderDurationMs.Observe(float64(time.Since(start).Milliseconds()))
		s.cache.Put(ctx, key, data)
		return rendered{data: data}, nil
	})
	if err != nil {
		return Tile{}, err
	}

	r := v.(rendered)
	if r.empty {
		metrics.EmptyTilesTotal.Inc()
		log.Debug().Str("tile", t.String()).Msg("Serving empty tile")
	}
	return Tile{Data: r.data, ContentType: enc.ContentType(), Empty: r.empty, Source: tilecache.Miss}, nil
}

// emptyTile returns the transparent tile in the encoder's format, encoding
// it once per format.
func (s *Service) emptyTile(enc render.Encoder) ([]byte, error) {
	s.emptyMu.Lock()
	defer s.emptyMu.Unlock()

	if data, ok := s.empty[enc.Ext()]; ok {
		return data, nil
	}
	data, err := render.EncodeBytes(enc, s.renderer.Empty())
	if err != nil {
		return nil, fmt.Errorf("encode empty tile: %w", err)
	}
	s.empty[enc.Ext()] = data
	return data, nil
}
