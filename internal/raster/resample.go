package raster

import (
	"fmt"
	"math"
)

// Resampling selects how a window is scaled to the output size.
type Resampling int

const (
	Nearest Resampling = iota
	Bilinear
)

func (r Resampling) String() string {
	switch r {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	default:
		return fmt.Sprintf("Resampling(%d)", int(r))
	}
}

// PixelFunc returns the native value at absolute grid position col,row.
type PixelFunc func(col, row int) (float32, error)

// Resample scales window w to outW x outH using at for source pixels. Only
// the source pixels the output depends on are requested. The source position
// of output pixel i is i*in/out; bilinear blends floor and min(ceil, in-1).
func Resample(w Window, outW, outH int, method Resampling, at PixelFunc) ([]float32, error) {
	if w.Empty() {
		return nil, fmt.Errorf("empty window %s", w)
	}
	if outW <= 0 || outH <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", outW, outH)
	}

	inW, inH := w.Width(), w.Height()
	relX := float64(inW) / float64(outW)
	relY := float64(inH) / float64(outH)
	out := make([]float32, outW*outH)

	switch method {
	case Nearest:
		cols := make([]int, outW)
		for x := range cols {
			cols[x] = w.ColStart + min(int(math.Round(relX*float64(x))), inW-1)
		}
		for y := 0; y < outH; y++ {
			row := w.RowStart + min(int(math.Round(relY*float64(y))), inH-1)
			for x, col := range cols {
				v, err := at(col, row)
				if err != nil {
					return nil, err
				}
				out[y*outW+x] = v
			}
		}

	case Bilinear:
		type span struct {
			lo, hi int
			frac   float64
		}
		spans := func(n, in int, rel float64, origin int) []span {
			s := make([]span, n)
			for i := range s {
				raw := rel * float64(i)
				s[i] = span{
					lo:   origin + int(math.Floor(raw)),
					hi:   origin + min(int(math.Ceil(raw)), in-1),
					frac: raw - math.Floor(raw),
				}
			}
			return s
		}
		xs := spans(outW, inW, relX, w.ColStart)
		ys := spans(outH, inH, relY, w.RowStart)

		for y, sy := range ys {
			for x, sx := range xs {
				ll, err := at(sx.lo, sy.lo)
				if err != nil {
					return nil, err
				}
				hl, err := at(sx.hi, sy.lo)
				if err != nil {
					return nil, err
				}
				lh, err := at(sx.lo, sy.hi)
				if err != nil {
					return nil, err
				}
				hh, err := at(sx.hi, sy.hi)
				if err != nil {
					return nil, err
				}
				out[y*outW+x] = blend(ll, hl, lh, hh, sx.frac, sy.frac)
			}
		}

	default:
		return nil, fmt.Errorf("unsupported resampling %s", method)
	}

	return out, nil
}

func blend(ll, hl, lh, hh float32, tx, ty float64) float32 {
	if ll == hl && ll == lh && ll == hh {
		return ll
	}
	top := lerp(float64(ll), float64(hl), tx)
	bottom := lerp(float64(lh), float64(hh), tx)
	return float32(lerp(top, bottom, ty))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
