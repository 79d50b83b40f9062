// Package raster maps geographic windows onto a single-band float32 grid and
// reads resampled sample buffers from it.
package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/woozymasta/skyglow/internal/geo"
)

// ErrOutOfBounds is returned for coordinates outside the dataset coverage.
var ErrOutOfBounds = errors.New("coordinates out of dataset bounds")

// Dataset is a single-band float32 raster on a regular lat/lon grid.
// Implementations must allow concurrent ReadWindow calls.
type Dataset interface {
	Bounds() geo.Bounds
	Width() int
	Height() int
	// ReadWindow returns outW*outH row-major samples of w resampled with method.
	ReadWindow(w Window, outW, outH int, method Resampling) ([]float32, error)
}

// Window is a half-open pixel rectangle [ColStart,ColEnd) x [RowStart,RowEnd).
type Window struct {
	ColStart, RowStart int
	ColEnd, RowEnd     int
}

func (w Window) Width() int  { return w.ColEnd - w.ColStart }
func (w Window) Height() int { return w.RowEnd - w.RowStart }
func (w Window) Area() int   { return w.Width() * w.Height() }

// Empty reports whether the window covers no pixels.
func (w Window) Empty() bool {
	return w.Width() <= 0 || w.Height() <= 0
}

// Within reports whether the window lies inside a width x height grid.
func (w Window) Within(width, height int) bool {
	return !w.Empty() && w.ColStart >= 0 && w.RowStart >= 0 && w.ColEnd <= width && w.RowEnd <= height
}

func (w Window) String() string {
	return fmt.Sprintf("[%d,%d %d,%d]", w.ColStart, w.RowStart, w.ColEnd, w.RowEnd)
}

// Resolution returns the size of one pixel in degrees.
func Resolution(ds Dataset) (xRes, yRes float64) {
	b := ds.Bounds()
	return (b.MaxLon - b.MinLon) / float64(ds.Width()), (b.MaxLat - b.MinLat) / float64(ds.Height())
}

// WindowFor converts geographic bounds into a pixel window of ds. The bounds
// are clamped to the dataset first and the result is never smaller than one
// pixel; ok is false only when b does not overlap the dataset at all.
func WindowFor(ds Dataset, b geo.Bounds) (w Window, ok bool) {
	db := ds.Bounds()
	if !b.Intersects(db) {
		return Window{}, false
	}
	return windowOf(ds, b.Clip(db)), true
}

func windowOf(ds Dataset, clip geo.Bounds) Window {
	db := ds.Bounds()
	width, height := ds.Width(), ds.Height()
	xRes, yRes := Resolution(ds)

	colStart := int(math.Floor((clip.MinLon - db.MinLon) / xRes))
	colEnd := int(math.Ceil((clip.MaxLon - db.MinLon) / xRes))
	rowStart := int(math.Floor((db.MaxLat - clip.MaxLat) / yRes))
	rowEnd := int(math.Ceil((db.MaxLat - clip.MinLat) / yRes))

	colStart = geo.ClampInt(colStart, 0, width-1)
	colEnd = geo.ClampInt(colEnd, colStart+1, width)
	rowStart = geo.ClampInt(rowStart, 0, height-1)
	rowEnd = geo.ClampInt(rowEnd, rowStart+1, height)

	return Window{ColStart: colStart, RowStart: rowStart, ColEnd: colEnd, RowEnd: rowEnd}
}

// PixelAt returns the pixel containing lon/lat, clamped to the grid edges.
func PixelAt(ds Dataset, lon, lat float64) (col, row int, err error) {
	b := ds.Bounds()
	if !geo.Finite(lon) || !geo.Finite(lat) || !b.Contains(lon, lat) {
		return 0, 0, ErrOutOfBounds
	}
	xRes, yRes := Resolution(ds)
	col = geo.ClampInt(int(math.Floor((lon-b.MinLon)/xRes)), 0, ds.Width()-1)
	row = geo.ClampInt(int(math.Floor((b.MaxLat-lat)/yRes)), 0, ds.Height()-1)
	return col, row, nil
}

// CellCenter returns the geographic center of pixel col,row.
func CellCenter(ds Dataset, col, row int) (lon, lat float64) {
	b := ds.Bounds()
	xRes, yRes := Resolution(ds)
	return b.MinLon + (float64(col)+0.5)*xRes, b.MaxLat - (float64(row)+0.5)*yRes
}

// SamplePoint reads the single native pixel under lon/lat.
func SamplePoint(ds Dataset, lon, lat float64) (float32, error) {
	col, row, err := PixelAt(ds, lon, lat)
	if err != nil {
		return 0, err
	}
	data, err := ds.ReadWindow(Window{ColStart: col, RowStart: row, ColEnd: col + 1, RowEnd: row + 1}, 1, 1, Nearest)
	if err != nil {
		return 0, fmt.Errorf("read pixel %d,%d: %w", col, row, err)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("read pixel %d,%d: empty result", col, row)
	}
	return data[0], nil
}
