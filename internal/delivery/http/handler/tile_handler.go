package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/utils"
	"github.com/TjarkGerken/eu-data-tiles/internal/usecase"
)

// Cache lifetimes in seconds. Fallback tiles stay short-lived so a
// recovered backend replaces them quickly.
const (
	tileMaxAge     = 86400
	fallbackMaxAge = 300
)

// TileHandler - serves rendered raster tiles
type TileHandler struct {
	tileUC *usecase.TileUseCase
	logger *zap.Logger
}

func NewTileHandler(tileUC *usecase.TileUseCase, logger *zap.Logger) *TileHandler {
	return &TileHandler{
		tileUC: tileUC,
		logger: logger,
	}
}

// GetTile - GET /tiles/:layerId/:z/:x/:y.png
func (h *TileHandler) GetTile(c *fiber.Ctx) error {
	layerID := c.Params("layerId")

	z, errZ := strconv.Atoi(c.Params("z"))
	x, errX := strconv.Atoi(c.Params("x"))
	y, errY := strconv.Atoi(strings.TrimSuffix(c.Params("y"), ".png"))
	if errZ != nil || errX != nil || errY != nil {
		return utils.SendError(c, errors.ErrInvalidTileIndex)
	}

	res, err := h.tileUC.GetTile(c.Context(), layerID, z, x, y)
	if err != nil {
		return utils.SendError(c, err)
	}

	maxAge := tileMaxAge
	if res.Fallback {
		maxAge = fallbackMaxAge
	}

	c.Set("Content-Type", "image/png")
	c.Set("Cache-Control", "public, max-age="+strconv.Itoa(maxAge))
	return c.Send(res.Data)
}
