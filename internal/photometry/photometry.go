// Package photometry converts artificial sky brightness into SQM readings
// and Bortle classes.
package photometry

import (
	"math"
	"strconv"
)

const (
	// NaturalBackground is the natural sky brightness in mcd/m².
	NaturalBackground = 0.171168465

	// sqmDenominator relates mcd/m² to mag/arcsec².
	sqmDenominator = 108000000
)

// NoData is the float32 minimum used by the raster as "no measurement".
const NoData = float32(-math.MaxFloat32)

// Valid reports whether an artificial brightness sample is a real
// measurement: finite, non-negative and not the NoData sentinel.
func Valid(artificial float64) bool {
	if math.IsNaN(artificial) || math.IsInf(artificial, 0) {
		return false
	}
	if artificial == float64(NoData) {
		return false
	}
	return artificial >= 0
}

// TotalBrightness adds the natural background to the artificial component.
func TotalBrightness(artificial float64) float64 {
	return artificial + NaturalBackground
}

// SQM converts artificial brightness (mcd/m²) to a Sky Quality Meter value.
// The second result is false when the sample carries no data.
func SQM(artificial float64) (float64, bool) {
	if !Valid(artificial) {
		return 0, false
	}
	return math.Log10(TotalBrightness(artificial)/sqmDenominator) / -0.4, true
}

// Ratio returns how many times brighter than natural the artificial light is.
func Ratio(artificial float64) float64 {
	return artificial / NaturalBackground
}

// Bortle is a night-sky darkness class, 1 darkest. Class 9 stands for the
// combined "8-9" bucket.
type Bortle int

var bortleSteps = [...]struct {
	minSQM float64
	class  Bortle
}{
	{21.99, 1},
	{21.89, 2},
	{21.69, 3},
	{20.49, 4},
	{19.50, 5},
	{18.94, 6},
	{18.38, 7},
}

// BortleClass maps an SQM value onto the eight-bucket Bortle scale.
func BortleClass(sqm float64) Bortle {
	for _, s := range bortleSteps {
		if sqm >= s.minSQM {
			return s.class
		}
	}
	return 9
}

// Label returns the human facing name, e.g. "class 3" or "class 8-9".
func (b Bortle) Label() string {
	if b >= 8 {
		return "class 8-9"
	}
	return "class " + strconv.Itoa(int(b))
}

func (b Bortle) String() string { return b.Label() }

// Reading bundles every derived metric of one artificial brightness sample.
type Reading struct {
	Artificial float64
	Total      float64
	SQM        float64
	Ratio      float64
	Bortle     Bortle
}

// Measure derives a Reading; false means the sample carries no data.
func Measure(artificial float64) (Reading, bool) {
	sqm, ok := SQM(artificial)
	if !ok {
		return Reading{}, false
	}
	return Reading{
		Artificial: artificial,
		Total:      TotalBrightness(artificial),
		SQM:        sqm,
		Ratio:      Ratio(artificial),
		Bortle:     BortleClass(sqm),
	}, true
}
