package gradient

import (
	"image/color"

	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/photometry"
)

// Visualisation range of SQM values.
const (
	DefaultMinSQM = 16.0
	DefaultMaxSQM = 22.0
)

// Transparent is returned for samples without data.
var Transparent = color.NRGBA{}

// Mapper turns artificial sky brightness into overlay colors.
type Mapper struct {
	Gradient Gradient
	MinSQM   float64
	MaxSQM   float64
}

// DefaultMapper uses the Default gradient over the [16, 22] SQM range.
var DefaultMapper = Mapper{Gradient: Default, MinSQM: DefaultMinSQM, MaxSQM: DefaultMaxSQM}

// Color maps an artificial brightness sample (mcd/m²) to RGBA. Brighter sky
// maps to higher gradient positions. Samples without data are transparent.
func (m Mapper) Color(artificial float64) color.NRGBA {
	sqm, ok := photometry.SQM(artificial)
	if !ok {
		return Transparent
	}

	clamped := geo.Clamp(sqm, m.MinSQM, m.MaxSQM)
	t := 1 - (clamped-m.MinSQM)/(m.MaxSQM-m.MinSQM)
	return m.Gradient.At(t)
}

// BrightnessToColor maps a sample with the DefaultMapper.
func BrightnessToColor(artificial float64) color.NRGBA {
	return DefaultMapper.Color(artificial)
}
