package dto

import (
	"github.com/TjarkGerken/eu-data-tiles/internal/domain"
)

// Declared upload types accepted by POST /layers.
const (
	UploadTypeRasterImagery = "raster-imagery"
	UploadTypeVectorPackage = "vector-package"
	UploadTypeVectorText    = "vector-text"
)

// UploadLayerRequest carries the multipart form fields of an upload.
type UploadLayerRequest struct {
	LayerName string `json:"layerName" validate:"required,min=1,max=128"`
	LayerType string `json:"layerType" validate:"required,oneof=raster-imagery vector-package vector-text"`
}

// UploadLayerResponse reports the single artifact the optimizer produced.
type UploadLayerResponse struct {
	Success          bool   `json:"success"`
	LayerID          string `json:"layerId"`
	FileName         string `json:"fileName"`
	URL              string `json:"url"`
	OriginalSize     int64  `json:"originalSize"`
	OptimizedSize    int64  `json:"optimizedSize"`
	CompressionRatio int    `json:"compressionRatio"`
}

// LayersResponse wraps the catalog listing.
type LayersResponse struct {
	Layers []domain.Layer `json:"layers"`
}
