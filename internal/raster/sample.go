package raster

import (
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/skyglow/internal/geo"
)

// SampleWindow reads the part of ds covered by b resampled to outW x outH.
// ok is false when b misses the dataset or the read fails; read errors are
// logged, not returned.
func SampleWindow(ds Dataset, b geo.Bounds, outW, outH int) (data []float32, ok bool) {
	w, ok := WindowFor(ds, b)
	if !ok {
		return nil, false
	}

	data, err := ds.ReadWindow(w, outW, outH, Bilinear)
	if err != nil {
		log.Warn().
			Err(err).
			Str("bounds", b.String()).
			Str("window", w.String()).
			Msg("Raster window read failed")
		return nil, false
	}
	if len(data) != outW*outH {
		log.Warn().
			Int("samples", len(data)).
			Int("want", outW*outH).
			Str("window", w.String()).
			Msg("Raster window read returned short buffer")
		return nil, false
	}

	return data, true
}
