package raster

import (
	"errors"
	"testing"

	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/photometry"
)

var world = geo.Bounds{MinLon: -180, MaxLon: 180, MinLat: -90, MaxLat: 90}

// 4x2 grid of 90 degree cells holding 0..7 row-major.
func testGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(world, 4, 2, []float32{0, 1, 2, 3, 4, 5, 6, 7})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewGridErrors(t *testing.T) {
	if _, err := NewGrid(world, 2, 2, []float32{1}); err == nil {
		t.Error("short data accepted")
	}
	if _, err := NewGrid(world, 0, 2, nil); err == nil {
		t.Error("zero width accepted")
	}
	if _, err := NewGrid(geo.Bounds{MinLon: 1, MaxLon: 0, MinLat: 0, MaxLat: 1}, 1, 1, []float32{0}); err == nil {
		t.Error("inverted bounds accepted")
	}
}

func TestWindowFor(t *testing.T) {
	g := testGrid(t)
	tests := []struct {
		name string
		b    geo.Bounds
		want Window
		ok   bool
	}{
		{"whole world", world, Window{0, 0, 4, 2}, true},
		{"larger than dataset", geo.Bounds{MinLon: -500, MaxLon: 500, MinLat: -100, MaxLat: 100}, Window{0, 0, 4, 2}, true},
		{"tiny box", geo.Bounds{MinLon: 10, MaxLon: 10.0001, MinLat: 20, MaxLat: 20.0001}, Window{2, 0, 3, 1}, true},
		{"partially outside", geo.Bounds{MinLon: 170, MaxLon: 200, MinLat: 80, MaxLat: 100}, Window{3, 0, 4, 1}, true},
		{"outside", geo.Bounds{MinLon: 180, MaxLon: 200, MinLat: 0, MaxLat: 10}, Window{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WindowFor(g, tt.b)
			if ok != tt.ok || got != tt.want {
				t.Errorf("WindowFor(%s) = %v, %v; want %v, %v", tt.b, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestWindowNeverEmpty(t *testing.T) {
	g := testGrid(t)
	tests := []struct {
		clip geo.Bounds
		want Window
	}{
		{geo.Bounds{MinLon: 90, MaxLon: 90, MinLat: 0, MaxLat: 0}, Window{3, 1, 4, 2}},
		{geo.Bounds{MinLon: 180, MaxLon: 180, MinLat: -90, MaxLat: -90}, Window{3, 1, 4, 2}},
		{geo.Bounds{MinLon: -180, MaxLon: -180, MinLat: 90, MaxLat: 90}, Window{0, 0, 1, 1}},
	}
	for _, tt := range tests {
		got := windowOf(g, tt.clip)
		if got != tt.want {
			t.Errorf("windowOf(%s) = %v; want %v", tt.clip, got, tt.want)
		}
		if got.Empty() || !got.Within(4, 2) {
			t.Errorf("window %v is not a non-empty window of the grid", got)
		}
	}
}

func TestPixelAtAndSamplePoint(t *testing.T) {
	g := testGrid(t)
	tests := []struct {
		lon, lat float64
		col, row int
		want     float32
	}{
		{45, 45, 2, 0, 2},
		{-180, 90, 0, 0, 0},
		{180, -90, 3, 1, 7},
		{-0.5, -0.5, 1, 1, 5},
	}
	for _, tt := range tests {
		col, row, err := PixelAt(g, tt.lon, tt.lat)
		if err != nil || col != tt.col || row != tt.row {
			t.Errorf("PixelAt(%v,%v) = %d,%d,%v; want %d,%d", tt.lon, tt.lat, col, row, err, tt.col, tt.row)
		}
		v, err := SamplePoint(g, tt.lon, tt.lat)
		if err != nil || v != tt.want {
			t.Errorf("SamplePoint(%v,%v) = %v,%v; want %v", tt.lon, tt.lat, v, err, tt.want)
		}
	}

	if _, err := SamplePoint(g, 181, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("outside point error = %v", err)
	}
}

func TestCellCenter(t *testing.T) {
	g := testGrid(t)
	lon, lat := CellCenter(g, 0, 0)
	if lon != -135 || lat != 45 {
		t.Errorf("CellCenter(0,0) = %v,%v", lon, lat)
	}
	lon, lat = CellCenter(g, 3, 1)
	if lon != 135 || lat != -45 {
		t.Errorf("CellCenter(3,1) = %v,%v", lon, lat)
	}
}

func equalSamples(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResampleNearest(t *testing.T) {
	g := testGrid(t)

	got, err := g.ReadWindow(Window{0, 0, 4, 2}, 2, 1, Nearest)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float32{0, 2}; !equalSamples(got, want) {
		t.Errorf("downsample = %v; want %v", got, want)
	}

	got, err = g.ReadWindow(Window{0, 0, 4, 1}, 8, 1, Nearest)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float32{0, 1, 1, 2, 2, 3, 3, 3}; !equalSamples(got, want) {
		t.Errorf("upsample = %v; want %v", got, want)
	}
}

func TestResampleBilinear(t *testing.T) {
	g, err := NewGrid(world, 2, 1, []float32{0, 10})
	if err != nil {
		t.Fatal(err)
	}
	got, err := g.ReadWindow(Window{0, 0, 2, 1}, 4, 1, Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float32{0, 5, 10, 10}; !equalSamples(got, want) {
		t.Errorf("bilinear = %v; want %v", got, want)
	}
}

func TestResampleIdentity(t *testing.T) {
	g := testGrid(t)
	for _, m := range []Resampling{Nearest, Bilinear} {
		got, err := g.ReadWindow(Window{1, 0, 3, 2}, 2, 2, m)
		if err != nil {
			t.Fatal(err)
		}
		if want := []float32{1, 2, 5, 6}; !equalSamples(got, want) {
			t.Errorf("%s identity = %v; want %v", m, got, want)
		}
	}
}

func TestResampleKeepsNoData(t *testing.T) {
	g, err := NewFilledGrid(world, 2, 2, photometry.NoData)
	if err != nil {
		t.Fatal(err)
	}
	got, err := g.ReadWindow(Window{0, 0, 2, 2}, 3, 3, Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != photometry.NoData {
			t.Fatalf("sample %d = %v; want NoData", i, v)
		}
	}
}

func TestResampleErrors(t *testing.T) {
	g := testGrid(t)
	if _, err := g.ReadWindow(Window{0, 0, 5, 1}, 1, 1, Nearest); err == nil {
		t.Error("window outside grid accepted")
	}
	if _, err := g.ReadWindow(Window{0, 0, 1, 1}, 0, 1, Nearest); err == nil {
		t.Error("zero output size accepted")
	}
	if _, err := g.ReadWindow(Window{0, 0, 1, 1}, 1, 1, Resampling(9)); err == nil {
		t.Error("unknown resampling accepted")
	}
}

type brokenDataset struct{ *Grid }

func (brokenDataset) ReadWindow(Window, int, int, Resampling) ([]float32, error) {
	return nil, errors.New("disk on fire")
}

func TestSampleWindow(t *testing.T) {
	g := testGrid(t)

	data, ok := SampleWindow(g, world, 4, 4)
	if !ok || len(data) != 16 {
		t.Fatalf("SampleWindow = %d samples, %v", len(data), ok)
	}

	if _, ok := SampleWindow(g, geo.Bounds{MinLon: 200, MaxLon: 210, MinLat: 0, MaxLat: 1}, 4, 4); ok {
		t.Error("disjoint bounds sampled")
	}

	if _, ok := SampleWindow(brokenDataset{g}, world, 4, 4); ok {
		t.Error("read failure not reported as empty")
	}
}
