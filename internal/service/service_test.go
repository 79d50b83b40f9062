package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "gopkg.in/check.v1"

	"github.com/woozymasta/skyglow/internal/config"
	"github.com/woozymasta/skyglow/internal/darkspot"
	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/photometry"
	"github.com/woozymasta/skyglow/internal/raster"
	"github.com/woozymasta/skyglow/internal/render"
	"github.com/woozymasta/skyglow/internal/tilecache"
)

func Test(t *testing.T) { TestingT(t) }

var (
	world = geo.Bounds{MinLon: -180, MaxLon: 180, MinLat: -85.0511, MaxLat: 85.0511}
	patch = geo.Bounds{MinLon: 10, MaxLon: 11, MinLat: 10, MaxLat: 11}
)

type allLand struct{}

func (allLand) IsLand(lon, lat float64) bool { return true }

func grid(c *C, b geo.Bounds, size int, v float32) *raster.Grid {
	g, err := raster.NewFilledGrid(b, size, size, v)
	c.Assert(err, IsNil)
	return g
}

func newService(ds raster.Dataset) *Service {
	return New(Deps{
		OpenDataset: func() (raster.Dataset, error) { return ds, nil },
		OpenLand:    func() (darkspot.LandTester, error) { return allLand{}, nil },
		MaxZoom:     12,
	})
}

type LazySuite struct{}

var _ = Suite(&LazySuite{})

func (s *LazySuite) TestRetriesAfterFailure(c *C) {
	calls := 0
	l := newLazy(func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("boom")
		}
		return 42, nil
	})

	_, err := l.get()
	c.Assert(err, ErrorMatches, "boom")
	c.Assert(l.ready(), Equals, false)

	v, err := l.get()
	c.Assert(err, IsNil)
	c.Assert(v, Equals, 42)

	v, err = l.get()
	c.Assert(err, IsNil)
	c.Assert(v, Equals, 42)
	c.Assert(calls, Equals, 2)
	c.Assert(l.ready(), Equals, true)
}

func (s *LazySuite) TestConcurrentBuildOnce(c *C) {
	var mu sync.Mutex
	calls := 0
	l := newLazy(func() (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "ok", nil
	})

	got := make([]string, 16)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = l.get()
		}()
	}
	wg.Wait()

	c.Assert(calls, Equals, 1)
	for _, v := range got {
		c.Assert(v, Equals, "ok")
	}
}

func (s *LazySuite) TestConcurrentFailureShared(c *C) {
	var calls atomic.Int32
	l := newLazy(func() (int, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return 0, errors.New("unreachable volume")
	})

	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = l.get()
		}()
	}
	wg.Wait()

	c.Assert(calls.Load(), Equals, int32(1))
	for _, err := range errs {
		c.Assert(err, ErrorMatches, "unreachable volume")
	}
	c.Assert(l.ready(), Equals, false)
	c.Assert(l.err(), ErrorMatches, "unreachable volume")

	_, err := l.get()
	c.Assert(err, NotNil)
	c.Assert(calls.Load(), Equals, int32(2))
}

type TileSuite struct {
	enc render.Encoder
}

var _ = Suite(&TileSuite{})

func (s *TileSuite) SetUpTest(c *C) {
	s.enc = render.NewPNGEncoder()
}

func (s *TileSuite) TestRenderThenCache(c *C) {
	svc := newService(grid(c, world, 64, 0.5))
	t := geo.TileCoordinate{Z: 0, X: 0, Y: 0}

	first, err := svc.Tile(context.Background(), t, s.enc)
	c.Assert(err, IsNil)
	c.Assert(first.Empty, Equals, false)
	c.Assert(first.Source, Equals, tilecache.Miss)
	c.Assert(first.ContentType, Equals, "image/png")
	c.Assert(len(first.Data) > 0, Equals, true)

	second, err := svc.Tile(context.Background(), t, s.enc)
	c.Assert(err, IsNil)
	c.Assert(second.Source, Equals, tilecache.Memory)
	c.Assert(second.Data, DeepEquals, first.Data)
}

func (s *TileSuite) TestOutsideDatasetIsEmpty(c *C) {
	svc := newService(grid(c, patch, 8, 0.5))

	tile, err := svc.Tile(context.Background(), geo.TileCoordinate{Z: 2, X: 0, Y: 0}, s.enc)
	c.Assert(err, IsNil)
	c.Assert(tile.Empty, Equals, true)

	again, err := svc.Tile(context.Background(), geo.TileCoordinate{Z: 2, X: 0, Y: 3}, s.enc)
	c.Assert(err, IsNil)
	c.Assert(again.Empty, Equals, true)
	c.Assert(again.Data, DeepEquals, tile.Data)
}

func (s *TileSuite) TestEmptyTileIsCached(c *C) {
	svc := newService(grid(c, patch, 8, 0.5))
	t := geo.TileCoordinate{Z: 2, X: 0, Y: 0}

	first, err := svc.Tile(context.Background(), t, s.enc)
	c.Assert(err, IsNil)
	c.Assert(first.Empty, Equals, true)
	c.Assert(first.Source, Equals, tilecache.Miss)

	second, err := svc.Tile(context.Background(), t, s.enc)
	c.Assert(err, IsNil)
	c.Assert(second.Source, Equals, tilecache.Memory)
	c.Assert(second.Data, DeepEquals, first.Data)
}

func (s *TileSuite) TestInvalidCoordinates(c *C) {
	svc := newService(grid(c, world, 8, 0))

	for _, t := range []geo.TileCoordinate{
		{Z: 1, X: 2, Y: 0},
		{Z: 1, X: 0, Y: -1},
		{Z: 13, X: 0, Y: 0},
	} {
		_, err := svc.Tile(context.Background(), t, s.enc)
		c.Check(errors.Is(err, ErrInvalidInput), Equals, true, Commentf("tile %s", t))
	}
}

func (s *TileSuite) TestNotReadyThenRecovers(c *C) {
	ds := grid(c, world, 8, 0)
	fail := true
	svc := New(Deps{OpenDataset: func() (raster.Dataset, error) {
		if fail {
			return nil, errors.New("disk on fire")
		}
		return ds, nil
	}})

	_, err := svc.Tile(context.Background(), geo.TileCoordinate{}, s.enc)
	c.Assert(errors.Is(err, ErrNotReady), Equals, true)
	c.Assert(svc.Readiness().Dataset, Equals, false)
	c.Assert(svc.Readiness().Failed(), Equals, true)

	fail = false
	_, err = svc.Tile(context.Background(), geo.TileCoordinate{}, s.enc)
	c.Assert(err, IsNil)
	c.Assert(svc.Readiness().Dataset, Equals, true)
	c.Assert(svc.Readiness().Failed(), Equals, false)
}

func (s *TileSuite) TestKey(c *C) {
	c.Assert(TileKey(geo.TileCoordinate{Z: 3, X: 1, Y: 2}, s.enc), Equals, "3/1/2.png")
}

type QuerySuite struct{}

var _ = Suite(&QuerySuite{})

func (s *QuerySuite) TestSkyQuality(c *C) {
	svc := newService(grid(c, patch, 10, 1))

	q, err := svc.SkyQuality(10.123456, 10.654321)
	c.Assert(err, IsNil)
	c.Assert(q.Coordinates, Equals, [2]float64{10.12346, 10.65432})
	c.Assert(q.SQM, Equals, 19.91)
	c.Assert(q.Brightness, Equals, 1.2)
	c.Assert(q.Artificial, Equals, int64(1000))
	c.Assert(q.Ratio, Equals, 5.8)
	c.Assert(q.Bortle, Equals, "class 5")
}

func (s *QuerySuite) TestSkyQualityErrors(c *C) {
	svc := newService(grid(c, patch, 10, 1))

	_, err := svc.SkyQuality(50, 50)
	c.Assert(errors.Is(err, raster.ErrOutOfBounds), Equals, true)

	_, err = svc.SkyQuality(91, 10)
	c.Assert(errors.Is(err, ErrInvalidInput), Equals, true)

	_, err = svc.SkyQuality(math.NaN(), 10)
	c.Assert(errors.Is(err, ErrInvalidInput), Equals, true)

	empty := newService(grid(c, patch, 10, photometry.NoData))
	_, err = empty.SkyQuality(10.5, 10.5)
	c.Assert(err, Equals, ErrNoData)
}

func (s *QuerySuite) TestFindDarkSpots(c *C) {
	svc := newService(grid(c, patch, 100, 0.2))

	res, err := svc.FindDarkSpots(10.5, 10.5, 0)
	c.Assert(err, IsNil)
	c.Assert(res.RadiusKm, Equals, 25.0)
	c.Assert(len(res.Spots) > 0, Equals, true)
	c.Assert(len(res.Spots) <= 12, Equals, true)
	for _, spot := range res.Spots {
		c.Check(spot.DistanceKm <= 25, Equals, true)
	}
}

func (s *QuerySuite) TestFindDarkSpotsErrors(c *C) {
	svc := newService(grid(c, patch, 100, 0.2))

	_, err := svc.FindDarkSpots(10.5, 10.5, math.Inf(1))
	c.Assert(errors.Is(err, ErrInvalidInput), Equals, true)

	_, err = svc.FindDarkSpots(-91, 10.5, 10)
	c.Assert(errors.Is(err, ErrInvalidInput), Equals, true)

	_, err = svc.FindDarkSpots(40, 40, 10)
	c.Assert(errors.Is(err, raster.ErrOutOfBounds), Equals, true)

	noLand := New(Deps{
		OpenDataset: func() (raster.Dataset, error) { return grid(c, patch, 10, 0), nil },
		OpenLand:    func() (darkspot.LandTester, error) { return nil, errors.New("missing file") },
	})
	_, err = noLand.FindDarkSpots(10.5, 10.5, 10)
	c.Assert(errors.Is(err, ErrNotReady), Equals, true)
}

func (s *QuerySuite) TestWarm(c *C) {
	svc := newService(grid(c, patch, 10, 0))
	c.Assert(svc.Warm(), IsNil)
	c.Assert(svc.Readiness(), Equals, Readiness{Dataset: true, Land: true})
}

type ConfigSuite struct{}

var _ = Suite(&ConfigSuite{})

func (s *ConfigSuite) TestMissingFilesAreNotReady(c *C) {
	cfg := config.Default()
	cfg.Dataset = filepath.Join(c.MkDir(), "missing.tif")
	cfg.Land = filepath.Join(c.MkDir(), "missing.json")

	svc, err := FromConfig(cfg, nil)
	c.Assert(err, IsNil)
	c.Assert(svc.MaxZoom(), Equals, cfg.Tiles.MaxZoom)

	err = svc.Warm()
	c.Assert(errors.Is(err, ErrNotReady), Equals, true)
	c.Assert(svc.Readiness(), Equals, Readiness{})
}

func (s *ConfigSuite) TestBadGradient(c *C) {
	cfg := config.Default()
	cfg.Gradient.Stops = []config.Stop{{T: 0.8}, {T: 0.2}}

	_, err := FromConfig(cfg, nil)
	c.Assert(err, NotNil)
}
