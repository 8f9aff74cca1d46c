package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/domain"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/tilemath"
)

// noDataValue is the reserved pixel intensity meaning "no measurement".
const noDataValue = 0

// fallbackAlpha is the fixed partial opacity of the degraded renderer.
const fallbackAlpha = 128

// Renderer turns an extracted pixel buffer into encoded tile bytes.
type Renderer interface {
	Render(pixels *image.NRGBA, ramp domain.ColorRamp, vr domain.ValueRange) ([]byte, error)
}

// PrimaryRenderer colorizes every pixel through the layer's ramp.
type PrimaryRenderer struct{}

func (PrimaryRenderer) Render(pixels *image.NRGBA, ramp domain.ColorRamp, vr domain.ValueRange) ([]byte, error) {
	if pixels == nil {
		return nil, fmt.Errorf("render: nil pixel buffer")
	}

	out := image.NewNRGBA(pixels.Bounds())
	span := vr.Max - vr.Min
	if span <= 0 {
		span = 1
	}

	for i := 0; i < len(pixels.Pix); i += 4 {
		v := pixels.Pix[i]
		a := pixels.Pix[i+3]
		if v == noDataValue || a == 0 {
			// leave fully transparent
			continue
		}
		t := (float64(v) - vr.Min) / span
		c := ramp.Interpolate(t)
		out.Pix[i] = c.R
		out.Pix[i+1] = c.G
		out.Pix[i+2] = c.B
		out.Pix[i+3] = a
	}

	return encodePNG(out)
}

// FallbackRenderer fills the whole tile with the ramp midpoint color at
// fixed partial opacity. Used when the primary path is unavailable.
type FallbackRenderer struct{}

func (FallbackRenderer) Render(pixels *image.NRGBA, ramp domain.ColorRamp, vr domain.ValueRange) ([]byte, error) {
	out := image.NewNRGBA(image.Rect(0, 0, tilemath.TileSize, tilemath.TileSize))
	mid := ramp.Midpoint()
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = mid.R
		out.Pix[i+1] = mid.G
		out.Pix[i+2] = mid.B
		out.Pix[i+3] = fallbackAlpha
	}
	return encodePNG(out)
}

// Engine owns renderer selection. Backend capability is probed once per
// process, lazily; the probe is cheap and side-effect-free, so concurrent
// first use is safe behind the Once.
type Engine struct {
	logger   *zap.Logger
	once     sync.Once
	usable   bool
	primary  Renderer
	fallback Renderer
}

func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger:   logger,
		primary:  PrimaryRenderer{},
		fallback: FallbackRenderer{},
	}
}

func (e *Engine) primaryAvailable() bool {
	e.once.Do(func() {
		probe := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		probe.Pix[0] = 1
		probe.Pix[3] = 255
		_, err := e.primary.Render(probe, domain.DefaultRamp(domain.CategoryUnknown), domain.ValueRange{Min: 0, Max: 255})
		e.usable = err == nil
		if !e.usable {
			e.logger.Warn("Primary render backend unavailable, serving degraded tiles", zap.Error(err))
		}
	})
	return e.usable
}

// RenderTile renders with the primary backend when available and degrades
// to the fallback on unavailability or a call-time failure. The fallback
// itself cannot fail short of the encoder breaking, in which case the
// caller's transparent-tile path takes over.
func (e *Engine) RenderTile(pixels *image.NRGBA, ramp domain.ColorRamp, vr domain.ValueRange) ([]byte, error) {
	if e.primaryAvailable() {
		data, err := e.primary.Render(pixels, ramp, vr)
		if err == nil {
			return data, nil
		}
		e.logger.Warn("Primary render failed, degrading to fallback", zap.Error(err))
	}
	return e.fallback.Render(pixels, ramp, vr)
}

var (
	transparentOnce sync.Once
	transparentPNG  []byte
)

// TransparentTile returns the shared fully transparent tile encoding.
func TransparentTile() []byte {
	transparentOnce.Do(func() {
		img := image.NewNRGBA(image.Rect(0, 0, tilemath.TileSize, tilemath.TileSize))
		data, err := encodePNG(img)
		if err != nil {
			// Encoding a blank in-memory image cannot fail at runtime;
			// keep a nil guard anyway.
			data = []byte{}
		}
		transparentPNG = data
	})
	return transparentPNG
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
