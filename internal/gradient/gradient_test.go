package gradient

import (
	"image/color"
	"math"
	"testing"

	"github.com/woozymasta/skyglow/internal/photometry"
)

func TestGradientEndpoints(t *testing.T) {
	first, last := Default[0].Color, Default[len(Default)-1].Color
	tests := []struct {
		t    float64
		want color.NRGBA
	}{
		{0, first},
		{-0.5, first},
		{math.Inf(-1), first},
		{1, last},
		{1.5, last},
		{math.Inf(1), last},
	}

	for _, tt := range tests {
		if got := Default.At(tt.t); got != tt.want {
			t.Errorf("At(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestGradientInterpolation(t *testing.T) {
	g, err := New(
		Stop{T: 0, Color: color.NRGBA{0, 0, 0, 0}},
		Stop{T: 1, Color: color.NRGBA{255, 100, 11, 200}},
	)
	if err != nil {
		t.Fatal(err)
	}

	got := g.At(0.5)
	want := color.NRGBA{128, 50, 6, 100}
	if got != want {
		t.Errorf("At(0.5) = %v, want %v", got, want)
	}

	// exact stop positions return the stop color
	if got := Default.At(0.55); got != Default[2].Color {
		t.Errorf("At(0.55) = %v, want %v", got, Default[2].Color)
	}
}

func TestGradientCoincidentStops(t *testing.T) {
	g, err := New(
		Stop{T: 0, Color: color.NRGBA{0, 0, 0, 255}},
		Stop{T: 0.5, Color: color.NRGBA{10, 10, 10, 255}},
		Stop{T: 0.5, Color: color.NRGBA{200, 200, 200, 255}},
		Stop{T: 1, Color: color.NRGBA{255, 255, 255, 255}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.At(0.5); got.R != 10 {
		t.Errorf("At(0.5) = %v, want first coincident stop", got)
	}
}

func TestNewRejectsUnsorted(t *testing.T) {
	if _, err := New(Stop{T: 0.5}, Stop{T: 0.2}); err == nil {
		t.Error("expected error for unsorted stops")
	}
	if _, err := New(); err == nil {
		t.Error("expected error for empty gradient")
	}
	if _, err := New(Stop{T: math.NaN()}); err == nil {
		t.Error("expected error for NaN stop")
	}
}

func TestBrightnessToColor(t *testing.T) {
	for _, v := range []float64{-1, math.NaN(), math.Inf(1), float64(photometry.NoData)} {
		if got := BrightnessToColor(v); got != Transparent {
			t.Errorf("BrightnessToColor(%v) = %v, want transparent", v, got)
		}
	}

	// pristine sky is at the dark end of the range
	if got := BrightnessToColor(0); got != Default[0].Color {
		t.Errorf("BrightnessToColor(0) = %v, want %v", got, Default[0].Color)
	}

	// anything brighter than SQM 16 saturates to red
	if got := BrightnessToColor(1e6); got != Default[len(Default)-1].Color {
		t.Errorf("BrightnessToColor(1e6) = %v, want %v", got, Default[len(Default)-1].Color)
	}
}

func TestBrightnessToColorAlphaGrows(t *testing.T) {
	prev := uint8(0)
	for _, v := range []float64{0, 0.5, 2, 10, 50, 200} {
		a := BrightnessToColor(v).A
		if a < prev {
			t.Fatalf("alpha decreased at %v: %d < %d", v, a, prev)
		}
		prev = a
	}
}
