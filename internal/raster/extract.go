package raster

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/tilemath"
)

// ExtractRegion cuts the pixel window covering ext out of the source and
// resizes it to the fixed tile size with an alpha channel. The window is
// computed with a linear equirectangular approximation and clamped to the
// source; a degenerate or fully-outside window yields a fully transparent
// tile instead of an error.
func ExtractRegion(src *Source, ext tilemath.Extent) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, tilemath.TileSize, tilemath.TileSize))

	if src == nil || src.Width <= 0 || src.Height <= 0 {
		return out
	}

	w := float64(src.Width)
	h := float64(src.Height)

	left := ext.West*w/360 + w/2
	top := (90 - ext.North) * h / 180
	width := (ext.East - ext.West) * w / 360
	height := (ext.North - ext.South) * h / 180

	// Clamp the window into the source; a window that starts outside
	// shrinks from that side.
	if left < 0 {
		width += left
		left = 0
	}
	if top < 0 {
		height += top
		top = 0
	}
	if left+width > w {
		width = w - left
	}
	if top+height > h {
		height = h - top
	}

	x0 := int(left)
	y0 := int(top)
	x1 := int(left + width)
	y1 := int(top + height)

	if width <= 0 || height <= 0 || x0 >= src.Width || y0 >= src.Height || x1 <= x0 || y1 <= y0 {
		return out
	}

	window := image.Rect(x0, y0, x1, y1).Intersect(src.Image.Bounds())
	if window.Empty() {
		return out
	}

	draw.NearestNeighbor.Scale(out, out.Bounds(), src.Image, window, draw.Src, nil)
	return out
}
