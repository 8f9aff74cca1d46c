package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	"github.com/TjarkGerken/eu-data-tiles/internal/domain"
	"github.com/TjarkGerken/eu-data-tiles/internal/domain/repository"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/tilemath"
	"github.com/TjarkGerken/eu-data-tiles/internal/raster"
)

// TileResult is one served tile. Fallback marks a degraded (transparent)
// response so the delivery layer can shorten its cache lifetime.
type TileResult struct {
	Data     []byte
	Fallback bool
}

// TileUseCase synthesizes map tiles on demand. Past index validation the
// serve path never returns an error: any failure degrades to a transparent
// tile so map clients keep panning.
type TileUseCase struct {
	sources     repository.SourceRepository
	layerRepo   repository.LayerRepository
	cacheRepo   repository.CacheRepository
	sourceCache *raster.SourceCache
	engine      *raster.Engine
	logger      *zap.Logger
	tileTTL     time.Duration
	// renderSlots bounds concurrent decode/extract/render work so a burst
	// of cold tiles cannot exhaust memory.
	renderSlots chan struct{}
}

func NewTileUseCase(
	sources repository.SourceRepository,
	layerRepo repository.LayerRepository,
	cacheRepo repository.CacheRepository,
	sourceCache *raster.SourceCache,
	engine *raster.Engine,
	cfg *config.Config,
	logger *zap.Logger,
) *TileUseCase {
	slots := cfg.Tile.MaxConcurrentRenders
	if slots <= 0 {
		slots = 1
	}
	return &TileUseCase{
		sources:     sources,
		layerRepo:   layerRepo,
		cacheRepo:   cacheRepo,
		sourceCache: sourceCache,
		engine:      engine,
		logger:      logger,
		tileTTL:     cfg.Cache.TileCacheTTL,
		renderSlots: make(chan struct{}, slots),
	}
}

// GetTile returns the rendered tile for one slippy address. The only error
// it can return is an invalid tile index; everything downstream degrades.
func (uc *TileUseCase) GetTile(ctx context.Context, layerID string, z, x, y int) (*TileResult, error) {
	tile, err := tilemath.NewTile(z, x, y)
	if err != nil {
		return nil, err
	}

	version := uc.layerVersion(ctx, layerID)

	if cached, err := uc.cacheRepo.GetTile(ctx, layerID, version, z, x, y); err == nil && cached != nil {
		return &TileResult{Data: cached}, nil
	} else if err != nil {
		uc.logger.Warn("Tile cache read failed", zap.String("layer_id", layerID), zap.Error(err))
	}

	select {
	case uc.renderSlots <- struct{}{}:
		defer func() { <-uc.renderSlots }()
	case <-ctx.Done():
		return uc.fallbackTile(layerID, z, x, y, ctx.Err()), nil
	}

	src, err := uc.loadSource(ctx, layerID, version)
	if err != nil {
		return uc.fallbackTile(layerID, z, x, y, err), nil
	}

	category := domain.CategoryOf(layerID)
	pixels := raster.ExtractRegion(src, tilemath.TileExtent(tile))
	data, err := uc.engine.RenderTile(pixels, domain.DefaultRamp(category), domain.DefaultValueRange(category))
	if err != nil {
		return uc.fallbackTile(layerID, z, x, y, err), nil
	}

	if err := uc.cacheRepo.SetTile(ctx, layerID, version, z, x, y, data, uc.tileTTL); err != nil {
		uc.logger.Warn("Tile cache write failed", zap.String("layer_id", layerID), zap.Error(err))
	}

	return &TileResult{Data: data}, nil
}

// layerVersion reads the bookkeeping version; layers without a record (or
// with the database down) serve under version 0.
func (uc *TileUseCase) layerVersion(ctx context.Context, layerID string) int {
	rec, err := uc.layerRepo.GetByID(ctx, layerID)
	if err != nil {
		uc.logger.Warn("Layer version lookup failed", zap.String("layer_id", layerID), zap.Error(err))
		return 0
	}
	if rec == nil {
		return 0
	}
	return rec.Version
}

// loadSource returns the decoded source raster, preferring the in-process
// cache over a store round trip.
func (uc *TileUseCase) loadSource(ctx context.Context, layerID string, version int) (*raster.Source, error) {
	if src, ok := uc.sourceCache.Get(layerID, version); ok {
		return src, nil
	}

	data, key, err := uc.sources.FetchSource(ctx, layerID)
	if err != nil {
		return nil, err
	}

	src, err := raster.Decode(data)
	if err != nil {
		uc.logger.Warn("Source decode failed",
			zap.String("layer_id", layerID),
			zap.String("key", key),
			zap.Error(err))
		return nil, err
	}

	uc.sourceCache.Set(layerID, version, src)
	return src, nil
}

func (uc *TileUseCase) fallbackTile(layerID string, z, x, y int, cause error) *TileResult {
	uc.logger.Warn("Serving transparent fallback tile",
		zap.String("layer_id", layerID),
		zap.Int("z", z), zap.Int("x", x), zap.Int("y", y),
		zap.Error(cause))
	return &TileResult{Data: raster.TransparentTile(), Fallback: true}
}
