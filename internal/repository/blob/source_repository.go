package blob

import (
	"context"

	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/domain/repository"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
)

// sourceExtensions is the small extension set the fetcher probes.
var sourceExtensions = []string{".png", ".tif", ".tiff", ".geojson"}

type sourceRepository struct {
	store  repository.BlobRepository
	logger *zap.Logger
}

// NewSourceRepository wraps the blob store with the fixed filename-variant
// resolution order for a layer id.
func NewSourceRepository(store repository.BlobRepository, logger *zap.Logger) repository.SourceRepository {
	return &sourceRepository{
		store:  store,
		logger: logger,
	}
}

// variants lists candidate object keys in probe order. Optimized artifacts
// are written as {id}_optimized.{ext}, so those come first; bare names
// cover objects stored before the optimizer existed.
func variants(layerID string) []string {
	keys := make([]string, 0, 2*len(sourceExtensions))
	for _, ext := range sourceExtensions {
		keys = append(keys, layerID+"_optimized"+ext)
	}
	for _, ext := range sourceExtensions {
		keys = append(keys, layerID+ext)
	}
	return keys
}

func (r *sourceRepository) FetchSource(ctx context.Context, layerID string) ([]byte, string, error) {
	for _, key := range variants(layerID) {
		data, ok, err := r.store.Get(ctx, key)
		if err != nil {
			// A failed download of one variant skips to the next; the
			// fetcher either fully succeeds on a variant or moves on.
			r.logger.Warn("Source variant fetch failed, trying next",
				zap.String("layer_id", layerID),
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		if ok {
			r.logger.Debug("Source resolved",
				zap.String("layer_id", layerID),
				zap.String("key", key),
				zap.Int("bytes", len(data)))
			return data, key, nil
		}
	}
	return nil, "", errors.ErrSourceNotFound.WithDetails(map[string]interface{}{
		"layer_id": layerID,
	})
}

func (r *sourceRepository) DeleteAllVariants(ctx context.Context, layerID string) (bool, error) {
	existed := false
	for _, key := range variants(layerID) {
		ok, err := r.store.Exists(ctx, key)
		if err != nil {
			return existed, err
		}
		if !ok {
			continue
		}
		if err := r.store.Delete(ctx, key); err != nil {
			return existed, err
		}
		existed = true
	}
	return existed, nil
}
