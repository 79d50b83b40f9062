// Package gradient maps normalized values and sky brightness to
// non-premultiplied RGBA colors.
package gradient

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// Stop is one color anchor of a gradient.
type Stop struct {
	T     float64
	Color color.NRGBA
}

// Gradient is a list of stops sorted by non-decreasing T.
type Gradient []Stop

// New validates the stops and returns them as a Gradient.
func New(stops ...Stop) (Gradient, error) {
	if len(stops) == 0 {
		return nil, errors.New("gradient needs at least one stop")
	}
	for i, s := range stops {
		if math.IsNaN(s.T) || math.IsInf(s.T, 0) {
			return nil, fmt.Errorf("stop %d: non-finite position", i)
		}
		if i > 0 && s.T < stops[i-1].T {
			return nil, fmt.Errorf("stop %d: position %g precedes %g", i, s.T, stops[i-1].T)
		}
	}
	return Gradient(stops), nil
}

// At interpolates the gradient at t. Values outside the first and last stop
// clamp to the endpoint colors; every channel is blended independently and
// rounded to the nearest integer.
func (g Gradient) At(t float64) color.NRGBA {
	first, last := g[0], g[len(g)-1]
	if math.IsNaN(t) || t <= first.T {
		return first.Color
	}
	if t >= last.T {
		return last.Color
	}

	for i := 0; i < len(g)-1; i++ {
		a, b := g[i], g[i+1]
		if t < a.T || t > b.T {
			continue
		}
		span := b.T - a.T
		if span == 0 {
			span = 1
		}
		local := (t - a.T) / span
		return color.NRGBA{
			R: lerp(a.Color.R, b.Color.R, local),
			G: lerp(a.Color.G, b.Color.G, local),
			B: lerp(a.Color.B, b.Color.B, local),
			A: lerp(a.Color.A, b.Color.A, local),
		}
	}

	return last.Color
}

func lerp(a, b uint8, t float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*t
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

// Default runs from a subtle deep green at dark sites to an opaque red at
// the brightest ones.
var Default = Gradient{
	{T: 0, Color: color.NRGBA{30, 170, 95, 70}},
	{T: 0.35, Color: color.NRGBA{92, 200, 118, 120}},
	{T: 0.55, Color: color.NRGBA{210, 190, 70, 150}},
	{T: 0.78, Color: color.NRGBA{245, 155, 65, 190}},
	{T: 1, Color: color.NRGBA{230, 70, 70, 220}},
}
