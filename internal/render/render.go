// Package render turns raster windows into colorized tile images.
package render

import (
	"image"
	"math"

	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/gradient"
	"github.com/woozymasta/skyglow/internal/photometry"
	"github.com/woozymasta/skyglow/internal/raster"
)

// TileSize is the default edge length of a rendered tile in pixels.
const TileSize = 256

// Renderer colorizes the raster window under a tile. It holds no mutable
// state and may be shared between goroutines.
type Renderer struct {
	mapper gradient.Mapper
	size   int
}

// New returns a renderer producing size x size tiles.
func New(mapper gradient.Mapper, size int) *Renderer {
	if size <= 0 {
		size = TileSize
	}
	return &Renderer{mapper: mapper, size: size}
}

// Size returns the tile edge length in pixels.
func (r *Renderer) Size() int { return r.size }

// Empty returns a fully transparent tile.
func (r *Renderer) Empty() *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, r.size, r.size))
}

// Render draws tile t. empty is true when the tile does not overlap the
// dataset or the window could not be read; the image is transparent then.
func (r *Renderer) Render(ds raster.Dataset, t geo.TileCoordinate) (img *image.NRGBA, empty bool) {
	b := t.Bounds()
	if !b.Intersects(ds.Bounds()) {
		return r.Empty(), true
	}

	data, ok := raster.SampleWindow(ds, b, r.size, r.size)
	if !ok {
		return r.Empty(), true
	}

	return r.Colorize(data), false
}

// Colorize maps size*size samples to an image. NoData, NaN and negative
// samples become transparent pixels.
func (r *Renderer) Colorize(data []float32) *image.NRGBA {
	img := r.Empty()
	for i, v := range data {
		if i >= r.size*r.size {
			break
		}
		if v == photometry.NoData || math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			continue
		}
		c := r.mapper.Color(float64(v))
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	}
	return img
}
