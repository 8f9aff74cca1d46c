package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/domain/repository"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// tileKey embeds the layer version so a re-upload orphans stale entries
// without touching them.
func tileKey(layerID string, version, z, x, y int) string {
	return fmt.Sprintf("tile:%s:%d:%d:%d:%d", layerID, version, z, x, y)
}

func (r *cacheRepository) GetTile(ctx context.Context, layerID string, version, z, x, y int) ([]byte, error) {
	return r.Get(ctx, tileKey(layerID, version, z, x, y))
}

func (r *cacheRepository) SetTile(ctx context.Context, layerID string, version, z, x, y int, data []byte, ttl time.Duration) error {
	return r.Set(ctx, tileKey(layerID, version, z, x, y), data, ttl)
}

// InvalidateLayer scans out every tile key of the layer across versions.
func (r *cacheRepository) InvalidateLayer(ctx context.Context, layerID string) error {
	pattern := fmt.Sprintf("tile:%s:*", layerID)

	var cursor uint64
	deleted := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			r.logger.Error("Failed to scan tile keys", zap.String("pattern", pattern), zap.Error(err))
			return fmt.Errorf("cache scan error: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.logger.Error("Failed to delete tile keys", zap.Error(err))
				return fmt.Errorf("cache delete error: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.logger.Info("Tile cache invalidated",
		zap.String("layer_id", layerID),
		zap.Int("keys", deleted))
	return nil
}
