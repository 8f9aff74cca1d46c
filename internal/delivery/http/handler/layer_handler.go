package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/utils"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/validator"
	"github.com/TjarkGerken/eu-data-tiles/internal/usecase"
	"github.com/TjarkGerken/eu-data-tiles/internal/usecase/dto"
)

// LayerHandler - layer catalog and ingestion endpoints
type LayerHandler struct {
	ingestUC  *usecase.IngestUseCase
	catalogUC *usecase.CatalogUseCase
	logger    *zap.Logger
}

func NewLayerHandler(ingestUC *usecase.IngestUseCase, catalogUC *usecase.CatalogUseCase, logger *zap.Logger) *LayerHandler {
	return &LayerHandler{
		ingestUC:  ingestUC,
		catalogUC: catalogUC,
		logger:    logger,
	}
}

// Upload - POST /layers, multipart form with file, layerName and layerType
func (h *LayerHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("multipart file field is required"))
	}

	req := dto.UploadLayerRequest{
		LayerName: c.FormValue("layerName"),
		LayerType: c.FormValue("layerType"),
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"validation": err.Error(),
		}))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("cannot open uploaded file"))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read upload body", zap.Error(err))
		return utils.SendError(c, errors.ErrInternalServer)
	}

	resp, err := h.ingestUC.Ingest(c.Context(), req, fileHeader.Filename, data)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, resp, nil)
}

// List - GET /layers
func (h *LayerHandler) List(c *fiber.Ctx) error {
	layers, err := h.catalogUC.List(c.Context())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.LayersResponse{Layers: layers}, &utils.Meta{Total: len(layers)})
}

// Get - GET /layers/:layerId
func (h *LayerHandler) Get(c *fiber.Ctx) error {
	layer, err := h.catalogUC.Get(c.Context(), c.Params("layerId"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, layer, nil)
}

// Delete - DELETE /layers/:layerId
func (h *LayerHandler) Delete(c *fiber.Ctx) error {
	layerID := c.Params("layerId")
	if err := h.catalogUC.Delete(c.Context(), layerID); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": layerID}, nil)
}
