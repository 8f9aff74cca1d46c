package raster

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders for the formats the optimizer emits.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// Source is a decoded source raster ready for window extraction.
type Source struct {
	Image  image.Image
	Width  int
	Height int
}

// Decode turns stored source bytes into a Source. The format is sniffed
// from the bytes; png, tiff and jpeg are supported.
func Decode(data []byte) (*Source, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode source raster: %w", err)
	}

	bounds := img.Bounds()
	return &Source{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
