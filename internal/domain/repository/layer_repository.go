package repository

import (
	"context"

	"github.com/TjarkGerken/eu-data-tiles/internal/domain"
)

// LayerRepository stores ingestion bookkeeping records. The version column
// keys tile cache entries so a re-upload implicitly invalidates them.
type LayerRepository interface {
	// Upsert inserts the record or, for an existing layer id, bumps the
	// version and refreshes sizes. Returns the stored record.
	Upsert(ctx context.Context, rec *domain.LayerRecord) (*domain.LayerRecord, error)

	// GetByID returns the record or nil when absent.
	GetByID(ctx context.Context, layerID string) (*domain.LayerRecord, error)

	// List returns all records.
	List(ctx context.Context) ([]*domain.LayerRecord, error)

	// Delete removes the record; reports whether it existed.
	Delete(ctx context.Context, layerID string) (bool, error)
}
