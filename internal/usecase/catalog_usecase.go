package usecase

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/domain"
	"github.com/TjarkGerken/eu-data-tiles/internal/domain/repository"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
)

// CatalogUseCase projects the object store into serving-time layer
// descriptors. The store is the source of truth for existence; the
// relational record only contributes upload metadata when present.
type CatalogUseCase struct {
	store     repository.BlobRepository
	sources   repository.SourceRepository
	layerRepo repository.LayerRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
}

func NewCatalogUseCase(
	store repository.BlobRepository,
	sources repository.SourceRepository,
	layerRepo repository.LayerRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		store:     store,
		sources:   sources,
		layerRepo: layerRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// List builds one layer per distinct derived id from the stored objects.
// Unservable extensions are skipped; duplicate variants of the same layer
// collapse onto the first listed object.
func (uc *CatalogUseCase) List(ctx context.Context) ([]domain.Layer, error) {
	objects, err := uc.store.List(ctx)
	if err != nil {
		uc.logger.Error("Catalog listing failed", zap.Error(err))
		return nil, errors.ErrInternalServer
	}

	records, err := uc.layerRepo.List(ctx)
	if err != nil {
		// Degraded listing: layers still appear, without upload metadata.
		uc.logger.Warn("Layer record listing failed", zap.Error(err))
		records = nil
	}
	recordByID := make(map[string]*domain.LayerRecord, len(records))
	for _, rec := range records {
		recordByID[rec.ID] = rec
	}

	seen := make(map[string]bool)
	layers := make([]domain.Layer, 0, len(objects))
	for _, obj := range objects {
		cls, ok := domain.Classify(obj.Key)
		if !ok {
			continue
		}
		id := domain.DeriveLayerID(obj.Key)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		layer := buildLayer(id, cls, obj.SizeBytes)
		if rec := recordByID[id]; rec != nil {
			layer.UploadedAt = rec.UploadedAt
		}
		layers = append(layers, layer)
	}

	sort.Slice(layers, func(i, j int) bool { return layers[i].ID < layers[j].ID })
	return layers, nil
}

// Get resolves a single layer descriptor, or ErrLayerNotFound.
func (uc *CatalogUseCase) Get(ctx context.Context, layerID string) (*domain.Layer, error) {
	layers, err := uc.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range layers {
		if layers[i].ID == layerID {
			return &layers[i], nil
		}
	}
	return nil, errors.ErrLayerNotFound
}

// Delete removes every stored variant, the bookkeeping record and all
// cached tiles of a layer. ErrLayerNotFound only when neither the store
// nor the database knew the layer.
func (uc *CatalogUseCase) Delete(ctx context.Context, layerID string) error {
	removedBlobs, err := uc.sources.DeleteAllVariants(ctx, layerID)
	if err != nil {
		uc.logger.Error("Variant deletion failed", zap.String("layer_id", layerID), zap.Error(err))
		return errors.ErrInternalServer
	}

	removedRecord, err := uc.layerRepo.Delete(ctx, layerID)
	if err != nil {
		return errors.ErrDatabaseError
	}

	if !removedBlobs && !removedRecord {
		return errors.ErrLayerNotFound
	}

	if err := uc.cacheRepo.InvalidateLayer(ctx, layerID); err != nil {
		uc.logger.Warn("Tile cache invalidation failed", zap.String("layer_id", layerID), zap.Error(err))
	}

	uc.logger.Info("Layer deleted",
		zap.String("layer_id", layerID),
		zap.Bool("removed_blobs", removedBlobs),
		zap.Bool("removed_record", removedRecord),
	)
	return nil
}

func buildLayer(id string, cls domain.Classification, sizeBytes int64) domain.Layer {
	category := domain.CategoryOf(id)
	return domain.Layer{
		ID:            id,
		DisplayName:   domain.DisplayNameOf(id),
		DataType:      cls.DataType,
		Format:        cls.Format,
		Bounds:        domain.DefaultBounds(category),
		ColorRamp:     domain.DefaultRamp(category),
		ValueRange:    domain.DefaultValueRange(category),
		FileSizeBytes: sizeBytes,
	}
}
