package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/domain"
	"github.com/TjarkGerken/eu-data-tiles/internal/domain/repository"
)

type layerRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewLayerRepository(db *DB, logger *zap.Logger) repository.LayerRepository {
	return &layerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *layerRepository) Upsert(ctx context.Context, rec *domain.LayerRecord) (*domain.LayerRecord, error) {
	const query = `
		INSERT INTO layer_records (id, file_name, version, original_bytes, optimized_bytes, compression_ratio, uploaded_at)
		VALUES ($1, $2, 1, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			file_name         = EXCLUDED.file_name,
			version           = layer_records.version + 1,
			original_bytes    = EXCLUDED.original_bytes,
			optimized_bytes   = EXCLUDED.optimized_bytes,
			compression_ratio = EXCLUDED.compression_ratio,
			uploaded_at       = now()
		RETURNING id, file_name, version, original_bytes, optimized_bytes, compression_ratio, uploaded_at`

	var stored domain.LayerRecord
	err := r.db.GetContext(ctx, &stored, query,
		rec.ID, rec.FileName, rec.OriginalBytes, rec.OptimizedBytes, rec.CompressionRatio)
	if err != nil {
		r.logger.Error("failed to upsert layer record", zap.String("layer_id", rec.ID), zap.Error(err))
		return nil, fmt.Errorf("upsert layer record: %w", err)
	}
	return &stored, nil
}

func (r *layerRepository) GetByID(ctx context.Context, layerID string) (*domain.LayerRecord, error) {
	const query = `
		SELECT id, file_name, version, original_bytes, optimized_bytes, compression_ratio, uploaded_at
		FROM layer_records
		WHERE id = $1`

	var rec domain.LayerRecord
	err := r.db.GetContext(ctx, &rec, query, layerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get layer record", zap.String("layer_id", layerID), zap.Error(err))
		return nil, fmt.Errorf("get layer record: %w", err)
	}
	return &rec, nil
}

func (r *layerRepository) List(ctx context.Context) ([]*domain.LayerRecord, error) {
	const query = `
		SELECT id, file_name, version, original_bytes, optimized_bytes, compression_ratio, uploaded_at
		FROM layer_records
		ORDER BY id`

	var recs []*domain.LayerRecord
	if err := r.db.SelectContext(ctx, &recs, query); err != nil {
		r.logger.Error("failed to list layer records", zap.Error(err))
		return nil, fmt.Errorf("list layer records: %w", err)
	}
	return recs, nil
}

func (r *layerRepository) Delete(ctx context.Context, layerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM layer_records WHERE id = $1`, layerID)
	if err != nil {
		r.logger.Error("failed to delete layer record", zap.String("layer_id", layerID), zap.Error(err))
		return false, fmt.Errorf("delete layer record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete layer record: %w", err)
	}
	return affected > 0, nil
}
