package blob_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/domain/repository"
	"github.com/TjarkGerken/eu-data-tiles/internal/repository/blob"
	apperrors "github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
)

// MockBlobRepository is a mock of BlobRepository
type MockBlobRepository struct {
	mock.Mock
}

func (m *MockBlobRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockBlobRepository) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockBlobRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlobRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockBlobRepository) List(ctx context.Context) ([]repository.StoredObject, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.StoredObject), args.Error(1)
}

func TestSourceRepository_FetchSource(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("optimized variant wins over bare name", func(t *testing.T) {
		store := &MockBlobRepository{}
		store.On("Get", ctx, "risk_map_optimized.png").Return([]byte("png-bytes"), true, nil)

		repo := blob.NewSourceRepository(store, logger)
		data, key, err := repo.FetchSource(ctx, "risk_map")

		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), data)
		assert.Equal(t, "risk_map_optimized.png", key)
		store.AssertExpectations(t)
	})

	t.Run("falls through variants in order", func(t *testing.T) {
		store := &MockBlobRepository{}
		store.On("Get", ctx, "risk_map_optimized.png").Return(nil, false, nil)
		store.On("Get", ctx, "risk_map_optimized.tif").Return(nil, false, nil)
		store.On("Get", ctx, "risk_map_optimized.tiff").Return(nil, false, nil)
		store.On("Get", ctx, "risk_map_optimized.geojson").Return(nil, false, nil)
		store.On("Get", ctx, "risk_map.png").Return([]byte("bare"), true, nil)

		repo := blob.NewSourceRepository(store, logger)
		data, key, err := repo.FetchSource(ctx, "risk_map")

		require.NoError(t, err)
		assert.Equal(t, []byte("bare"), data)
		assert.Equal(t, "risk_map.png", key)
	})

	t.Run("variant error skips to next", func(t *testing.T) {
		store := &MockBlobRepository{}
		store.On("Get", ctx, "risk_map_optimized.png").Return(nil, false, errors.New("network"))
		store.On("Get", ctx, "risk_map_optimized.tif").Return([]byte("tif"), true, nil)

		repo := blob.NewSourceRepository(store, logger)
		data, _, err := repo.FetchSource(ctx, "risk_map")

		require.NoError(t, err)
		assert.Equal(t, []byte("tif"), data)
	})

	t.Run("all variants miss", func(t *testing.T) {
		store := &MockBlobRepository{}
		store.On("Get", ctx, mock.Anything).Return(nil, false, nil)

		repo := blob.NewSourceRepository(store, logger)
		_, _, err := repo.FetchSource(ctx, "ghost")

		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, "SOURCE_NOT_FOUND", appErr.Code)
	})
}

func TestSourceRepository_DeleteAllVariants(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("deletes every existing variant", func(t *testing.T) {
		store := &MockBlobRepository{}
		store.On("Exists", ctx, "risk_map_optimized.png").Return(true, nil)
		store.On("Delete", ctx, "risk_map_optimized.png").Return(nil)
		store.On("Exists", ctx, mock.Anything).Return(false, nil)

		repo := blob.NewSourceRepository(store, logger)
		existed, err := repo.DeleteAllVariants(ctx, "risk_map")

		require.NoError(t, err)
		assert.True(t, existed)
		store.AssertCalled(t, "Delete", ctx, "risk_map_optimized.png")
	})

	t.Run("nothing existed", func(t *testing.T) {
		store := &MockBlobRepository{}
		store.On("Exists", ctx, mock.Anything).Return(false, nil)

		repo := blob.NewSourceRepository(store, logger)
		existed, err := repo.DeleteAllVariants(ctx, "ghost")

		require.NoError(t, err)
		assert.False(t, existed)
	})
}
