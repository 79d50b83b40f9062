package geo

import (
	"fmt"
	"math"
)

// MaxZoom bounds tile addressing so that 2^z fits comfortably in an int.
const MaxZoom = 30

// TileCoordinate addresses a Web-Mercator slippy-map tile.
type TileCoordinate struct {
	Z, X, Y int
}

// Valid reports whether 0 <= x,y < 2^z.
func (t TileCoordinate) Valid() bool {
	if t.Z < 0 || t.Z > MaxZoom {
		return false
	}
	n := 1 << t.Z
	return t.X >= 0 && t.Y >= 0 && t.X < n && t.Y < n
}

// String returns the "z/x/y" form used as the tile cache key.
func (t TileCoordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Bounds returns the geographic extent of the tile.
func (t TileCoordinate) Bounds() Bounds {
	return TileToBounds(t.X, t.Y, t.Z)
}

// Children returns the four tiles of the next zoom level covering t.
func (t TileCoordinate) Children() [4]TileCoordinate {
	nx, ny := t.X*2, t.Y*2
	return [4]TileCoordinate{
		{Z: t.Z + 1, X: nx, Y: ny},
		{Z: t.Z + 1, X: nx + 1, Y: ny},
		{Z: t.Z + 1, X: nx, Y: ny + 1},
		{Z: t.Z + 1, X: nx + 1, Y: ny + 1},
	}
}

// TileToBounds converts tile indices to degrees. Longitude is linear in x/n,
// latitude goes through the inverse Mercator transform of the top (y) and
// bottom (y+1) edges.
func TileToBounds(x, y, z int) Bounds {
	n := math.Exp2(float64(z))
	top := math.Pi - 2*math.Pi*float64(y)/n
	bottom := math.Pi - 2*math.Pi*float64(y+1)/n

	return Bounds{
		MinLon: float64(x)/n*360 - 180,
		MaxLon: float64(x+1)/n*360 - 180,
		MinLat: mercatorToLat(bottom),
		MaxLat: mercatorToLat(top),
	}
}
