package repository

import (
	"context"
	"time"
)

// CacheRepository is the shared cache for rendered tiles. Tile keys embed
// the layer version, so bumping the version on re-upload orphans old
// entries; InvalidateLayer additionally drops them eagerly.
type CacheRepository interface {
	// Get returns the cached value or nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// GetTile returns a cached rendered tile or nil.
	GetTile(ctx context.Context, layerID string, version, z, x, y int) ([]byte, error)

	// SetTile caches a rendered tile.
	SetTile(ctx context.Context, layerID string, version, z, x, y int, data []byte, ttl time.Duration) error

	// InvalidateLayer removes every cached tile of a layer, all versions.
	InvalidateLayer(ctx context.Context, layerID string) error
}
