package usecase

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	"github.com/TjarkGerken/eu-data-tiles/internal/domain"
	"github.com/TjarkGerken/eu-data-tiles/internal/domain/repository"
	"github.com/TjarkGerken/eu-data-tiles/internal/infrastructure/gdal"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/geomutil"
	"github.com/TjarkGerken/eu-data-tiles/internal/usecase/dto"
)

// supportedExtensions maps each declared upload type to the file
// extensions the optimizer accepts for it.
var supportedExtensions = map[string][]string{
	dto.UploadTypeRasterImagery: {".tif", ".tiff"},
	dto.UploadTypeVectorPackage: {".gpkg"},
	dto.UploadTypeVectorText:    {".geojson", ".json"},
}

// IngestUseCase is the Format Optimizer orchestration: one uploaded file
// in, exactly one optimized artifact in the object store out.
type IngestUseCase struct {
	store         repository.BlobRepository
	layerRepo     repository.LayerRepository
	cacheRepo     repository.CacheRepository
	converter     *gdal.Converter
	logger        *zap.Logger
	stagingDir    string
	sizeCeiling   int64
	publicBaseURL string
}

func NewIngestUseCase(
	store repository.BlobRepository,
	layerRepo repository.LayerRepository,
	cacheRepo repository.CacheRepository,
	converter *gdal.Converter,
	cfg *config.Config,
	logger *zap.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		store:         store,
		layerRepo:     layerRepo,
		cacheRepo:     cacheRepo,
		converter:     converter,
		logger:        logger,
		stagingDir:    cfg.Optimizer.StagingDir,
		sizeCeiling:   cfg.Optimizer.SizeCeilingBytes,
		publicBaseURL: strings.TrimSuffix(cfg.Storage.PublicBaseURL, "/"),
	}
}

// Ingest optimizes one upload and stores the winning artifact. Every
// staging file is removed on every exit path; cleanup is keyed on path
// existence, not on success.
func (uc *IngestUseCase) Ingest(ctx context.Context, req dto.UploadLayerRequest, originalName string, data []byte) (*dto.UploadLayerResponse, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !extensionSupported(req.LayerType, ext) {
		return nil, errors.ErrUnsupportedFormat.WithDetails(map[string]interface{}{
			"extension":  ext,
			"layer_type": req.LayerType,
		})
	}

	layerID := domain.SlugifyLayerName(req.LayerName)
	if layerID == "" {
		return nil, errors.ErrInvalidRequest.WithMessage("layer name resolves to an empty identifier")
	}

	staging := newStaging(uc.stagingDir)
	defer staging.cleanup(uc.logger)

	inputPath, err := staging.write(originalName, data)
	if err != nil {
		uc.logger.Error("Failed to write staging input", zap.Error(err))
		return nil, errors.ErrInternalServer
	}

	var artifact []byte
	var artifactExt string
	switch req.LayerType {
	case dto.UploadTypeRasterImagery:
		artifact, artifactExt, err = uc.optimizeRaster(ctx, staging, inputPath, layerID)
	case dto.UploadTypeVectorPackage:
		artifact, artifactExt, err = uc.optimizeVectorPackage(ctx, staging, inputPath, layerID)
	case dto.UploadTypeVectorText:
		artifact, artifactExt, err = uc.optimizeVectorText(data)
	default:
		err = errors.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	key := layerID + "_optimized" + artifactExt
	if putErr := uc.store.Put(ctx, key, artifact, contentTypeFor(artifactExt)); putErr != nil {
		uc.logger.Error("Artifact upload failed", zap.String("key", key), zap.Error(putErr))
		return nil, errors.ErrUploadFailed
	}

	originalSize := int64(len(data))
	optimizedSize := int64(len(artifact))
	ratio := compressionRatio(originalSize, optimizedSize)

	if _, dbErr := uc.layerRepo.Upsert(ctx, &domain.LayerRecord{
		ID:               layerID,
		FileName:         key,
		OriginalBytes:    originalSize,
		OptimizedBytes:   optimizedSize,
		CompressionRatio: ratio,
	}); dbErr != nil {
		return nil, errors.ErrDatabaseError
	}

	// Old tiles of a re-uploaded layer must not survive.
	if cacheErr := uc.cacheRepo.InvalidateLayer(ctx, layerID); cacheErr != nil {
		uc.logger.Warn("Tile cache invalidation failed", zap.String("layer_id", layerID), zap.Error(cacheErr))
	}

	uc.logger.Info("Layer ingested",
		zap.String("layer_id", layerID),
		zap.String("key", key),
		zap.Int64("original_bytes", originalSize),
		zap.Int64("optimized_bytes", optimizedSize),
		zap.Int("compression_ratio", ratio),
	)

	return &dto.UploadLayerResponse{
		Success:          true,
		LayerID:          layerID,
		FileName:         key,
		URL:              uc.artifactURL(key),
		OriginalSize:     originalSize,
		OptimizedSize:    optimizedSize,
		CompressionRatio: ratio,
	}, nil
}

// optimizeRaster tries the aggressive lossy rendition first and falls back
// to the tiled compressed rendition when the result breaches the ceiling.
// The rejected intermediate never leaves staging.
func (uc *IngestUseCase) optimizeRaster(ctx context.Context, staging *stagingArea, inputPath, layerID string) ([]byte, string, error) {
	previewPath := staging.path(layerID + "_preview.png")
	if err := uc.converter.TranslateLossyPreview(ctx, inputPath, previewPath); err != nil {
		return nil, "", err
	}

	info, err := os.Stat(previewPath)
	if err != nil {
		uc.logger.Error("Preview rendition missing after conversion", zap.Error(err))
		return nil, "", errors.ErrConversionFailed
	}

	if info.Size() < uc.sizeCeiling {
		data, err := os.ReadFile(previewPath)
		if err != nil {
			return nil, "", errors.ErrConversionFailed
		}
		return data, ".png", nil
	}

	uc.logger.Info("Lossy rendition over size ceiling, using tiled fallback",
		zap.String("layer_id", layerID),
		zap.Int64("preview_bytes", info.Size()),
		zap.Int64("ceiling_bytes", uc.sizeCeiling),
	)
	_ = os.Remove(previewPath)

	fallbackPath := staging.path(layerID + "_tiled.tif")
	if err := uc.converter.TranslateTiledFallback(ctx, inputPath, fallbackPath); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(fallbackPath)
	if err != nil {
		return nil, "", errors.ErrConversionFailed
	}
	return data, ".tif", nil
}

func (uc *IngestUseCase) optimizeVectorPackage(ctx context.Context, staging *stagingArea, inputPath, layerID string) ([]byte, string, error) {
	outPath := staging.path(layerID + ".geojson")
	if err := uc.converter.SimplifyVectorPackage(ctx, inputPath, outPath); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, "", errors.ErrConversionFailed
	}
	return data, ".geojson", nil
}

func (uc *IngestUseCase) optimizeVectorText(data []byte) ([]byte, string, error) {
	rounded, err := geomutil.RoundGeoJSON(data)
	if err != nil {
		return nil, "", errors.ErrConversionFailed.WithDetails(map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return rounded, ".geojson", nil
}

func (uc *IngestUseCase) artifactURL(key string) string {
	if uc.publicBaseURL == "" {
		return "/" + key
	}
	return uc.publicBaseURL + "/" + key
}

func extensionSupported(layerType, ext string) bool {
	for _, e := range supportedExtensions[layerType] {
		if e == ext {
			return true
		}
	}
	return false
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".geojson", ".json":
		return "application/geo+json"
	default:
		return "application/octet-stream"
	}
}

func compressionRatio(original, optimized int64) int {
	if original <= 0 {
		return 0
	}
	return int(math.Round((1 - float64(optimized)/float64(original)) * 100))
}

// stagingArea tracks temporary files so cleanup can run unconditionally.
// Names carry a random identifier; concurrent uploads of the same file
// cannot collide.
type stagingArea struct {
	dir   string
	runID string
	paths []string
}

func newStaging(dir string) *stagingArea {
	if dir == "" {
		dir = os.TempDir()
	}
	return &stagingArea{
		dir:   dir,
		runID: uuid.New().String(),
	}
}

// path reserves a staging file name for later cleanup.
func (s *stagingArea) path(name string) string {
	p := filepath.Join(s.dir, fmt.Sprintf("%s_%s", s.runID, name))
	s.paths = append(s.paths, p)
	return p
}

func (s *stagingArea) write(name string, data []byte) (string, error) {
	p := s.path(filepath.Base(name))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// cleanup removes every staged path that still exists, regardless of how
// the ingestion ended.
func (s *stagingArea) cleanup(logger *zap.Logger) {
	for _, p := range s.paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := os.Remove(p); err != nil {
			logger.Warn("Failed to remove staging file", zap.String("path", p), zap.Error(err))
		}
	}
}
