package tilemath

import (
	"math"

	"github.com/paulmach/orb/maptile"

	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
)

// TileSize is the edge length in pixels of every served tile.
const TileSize = 256

// MaxZoom caps the tile pyramid. Sources are stored at a bounded
// resolution; deeper zooms would only oversample them.
const MaxZoom = 10

// Extent is a geographic bounding box in degrees.
type Extent struct {
	West  float64
	South float64
	East  float64
	North float64
}

// NewTile validates a slippy-tile address and returns it as a maptile.Tile.
// z must be within [0, MaxZoom] and x,y within [0, 2^z).
func NewTile(z, x, y int) (maptile.Tile, error) {
	if z < 0 || z > MaxZoom {
		return maptile.Tile{}, errors.ErrInvalidTileIndex.WithDetails(map[string]interface{}{
			"z": z, "max_zoom": MaxZoom,
		})
	}
	n := 1 << uint(z)
	if x < 0 || x >= n || y < 0 || y >= n {
		return maptile.Tile{}, errors.ErrInvalidTileIndex.WithDetails(map[string]interface{}{
			"z": z, "x": x, "y": y,
		})
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

// TileExtent returns the geographic bounding box of a tile using the
// standard slippy-tile inverse formula:
//
//	lon = x/n*360 - 180
//	lat = atan(sinh(pi*(1 - 2y/n))) in degrees
func TileExtent(t maptile.Tile) Extent {
	n := float64(uint64(1) << uint(t.Z))
	return Extent{
		West:  float64(t.X)/n*360 - 180,
		East:  float64(t.X+1)/n*360 - 180,
		North: tileLat(float64(t.Y), n),
		South: tileLat(float64(t.Y+1), n),
	}
}

func tileLat(y, n float64) float64 {
	return math.Atan(math.Sinh(math.Pi*(1-2*y/n))) * 180 / math.Pi
}
