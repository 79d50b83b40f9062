package raster

import (
	"fmt"

	"github.com/woozymasta/skyglow/internal/geo"
)

// Grid is an in-memory Dataset.
type Grid struct {
	bounds        geo.Bounds
	width, height int
	data          []float32
}

// NewGrid wraps row-major data of width x height pixels covering bounds.
func NewGrid(bounds geo.Bounds, width, height int, data []float32) (*Grid, error) {
	if !bounds.Valid() {
		return nil, fmt.Errorf("invalid grid bounds %s", bounds)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("grid data has %d samples, want %d", len(data), width*height)
	}
	return &Grid{bounds: bounds, width: width, height: height, data: data}, nil
}

// NewFilledGrid returns a grid with every pixel set to v.
func NewFilledGrid(bounds geo.Bounds, width, height int, v float32) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	data := make([]float32, width*height)
	for i := range data {
		data[i] = v
	}
	return NewGrid(bounds, width, height, data)
}

func (g *Grid) Bounds() geo.Bounds { return g.bounds }
func (g *Grid) Width() int         { return g.width }
func (g *Grid) Height() int        { return g.height }

// At returns the pixel at col,row.
func (g *Grid) At(col, row int) float32 {
	return g.data[row*g.width+col]
}

// Set writes the pixel at col,row. Not safe during concurrent reads.
func (g *Grid) Set(col, row int, v float32) {
	g.data[row*g.width+col] = v
}

func (g *Grid) ReadWindow(w Window, outW, outH int, method Resampling) ([]float32, error) {
	if !w.Within(g.width, g.height) {
		return nil, fmt.Errorf("window %s outside %dx%d grid", w, g.width, g.height)
	}
	return Resample(w, outW, outH, method, func(col, row int) (float32, error) {
		return g.data[row*g.width+col], nil
	})
}
