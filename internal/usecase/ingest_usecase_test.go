package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	"github.com/TjarkGerken/eu-data-tiles/internal/domain"
	"github.com/TjarkGerken/eu-data-tiles/internal/domain/repository"
	"github.com/TjarkGerken/eu-data-tiles/internal/infrastructure/gdal"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
	"github.com/TjarkGerken/eu-data-tiles/internal/usecase/dto"
)

type MockBlobRepository struct {
	mock.Mock
}

func (m *MockBlobRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.Bool(1), args.Error(2)
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
	var objs []repository.StoredObject
	if args.Get(0) != nil {
		objs = args.Get(0).([]repository.StoredObject)
	}
	return objs, args.Error(1)
}

type MockLayerRepository struct {
	mock.Mock
}

func (m *MockLayerRepository) Upsert(ctx context.Context, rec *domain.LayerRecord) (*domain.LayerRecord, error) {
	args := m.Called(ctx, rec)
	var out *domain.LayerRecord
	if args.Get(0) != nil {
		out = args.Get(0).(*domain.LayerRecord)
	}
	return out, args.Error(1)
}

func (m *MockLayerRepository) GetByID(ctx context.Context, layerID string) (*domain.LayerRecord, error) {
	args := m.Called(ctx, layerID)
	var out *domain.LayerRecord
	if args.Get(0) != nil {
		out = args.Get(0).(*domain.LayerRecord)
	}
	return out, args.Error(1)
}

func (m *MockLayerRepository) List(ctx context.Context) ([]*domain.LayerRecord, error) {
	args := m.Called(ctx)
	var out []*domain.LayerRecord
	if args.Get(0) != nil {
		out = args.Get(0).([]*domain.LayerRecord)
	}
	return out, args.Error(1)
}

func (m *MockLayerRepository) Delete(ctx context.Context, layerID string) (bool, error) {
	args := m.Called(ctx, layerID)
	return args.Bool(0), args.Error(1)
}

type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) GetTile(ctx context.Context, layerID string, version, z, x, y int) ([]byte, error) {
	args := m.Called(ctx, layerID, version, z, x, y)
	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.Error(1)
}

func (m *MockCacheRepository) SetTile(ctx context.Context, layerID string, version, z, x, y int, data []byte, ttl time.Duration) error {
	args := m.Called(ctx, layerID, version, z, x, y, data, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) InvalidateLayer(ctx context.Context, layerID string) error {
	args := m.Called(ctx, layerID)
	return args.Error(0)
}

// writingRunner fakes a conversion tool by writing canned bytes to the
// destination path of each invocation.
type writingRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (r *writingRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.err != nil {
		return "tool exploded", r.err
	}
	dst := args[len(args)-1]
	if name == "ogr2ogr" {
		// dst comes before src for ogr2ogr
		dst = args[len(args)-2]
	}
	if err := os.WriteFile(dst, r.output, 0o644); err != nil {
		return "", err
	}
	return "", nil
}

func newIngestForTest(t *testing.T, runner gdal.Runner, ceiling int64) (*IngestUseCase, *MockBlobRepository, *MockLayerRepository, *MockCacheRepository) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Optimizer.StagingDir = t.TempDir()
	cfg.Optimizer.SizeCeilingBytes = ceiling
	cfg.Optimizer.GDALTranslatePath = "gdal_translate"
	cfg.Optimizer.OGR2OGRPath = "ogr2ogr"
	cfg.Storage.PublicBaseURL = "https://cdn.example.com/artifacts"

	store := new(MockBlobRepository)
	layerRepo := new(MockLayerRepository)
	cacheRepo := new(MockCacheRepository)
	converter := gdal.NewConverterWithRunner(&cfg.Optimizer, runner, zap.NewNop())

	uc := NewIngestUseCase(store, layerRepo, cacheRepo, converter, cfg, zap.NewNop())
	return uc, store, layerRepo, cacheRepo
}

func TestIngest_RejectsUnsupportedExtension(t *testing.T) {
	uc, store, _, _ := newIngestForTest(t, &writingRunner{}, 50)

	cases := []struct {
		layerType string
		fileName  string
	}{
		{dto.UploadTypeRasterImagery, "payload.exe"},
		{dto.UploadTypeRasterImagery, "coastline.png"},
		{dto.UploadTypeRasterImagery, "coastline.geojson"},
		{dto.UploadTypeVectorPackage, "regions.tif"},
		{dto.UploadTypeVectorText, "risk.gpkg"},
	}
	for _, tc := range cases {
		t.Run(tc.fileName, func(t *testing.T) {
			_, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
				LayerName: "Some Layer",
				LayerType: tc.layerType,
			}, tc.fileName, []byte("data"))

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, errors.ErrUnsupportedFormat.Code, appErr.Code)
		})
	}
	// No subprocess, no upload for rejected input.
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_RasterPreviewAccepted(t *testing.T) {
	runner := &writingRunner{output: []byte("tiny-png")}
	uc, store, layerRepo, cacheRepo := newIngestForTest(t, runner, 1024)

	store.On("Put", mock.Anything, "coastal_flood_risk_optimized.png", []byte("tiny-png"), "image/png").Return(nil)
	layerRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(rec *domain.LayerRecord) bool {
		return rec.ID == "coastal_flood_risk" && rec.FileName == "coastal_flood_risk_optimized.png"
	})).Return(&domain.LayerRecord{ID: "coastal_flood_risk", Version: 1}, nil)
	cacheRepo.On("InvalidateLayer", mock.Anything, "coastal_flood_risk").Return(nil)

	original := strings.Repeat("x", 100)
	resp, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
		LayerName: "Coastal Flood Risk",
		LayerType: dto.UploadTypeRasterImagery,
	}, "upload.tif", []byte(original))

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "coastal_flood_risk", resp.LayerID)
	assert.Equal(t, "https://cdn.example.com/artifacts/coastal_flood_risk_optimized.png", resp.URL)
	assert.Equal(t, int64(100), resp.OriginalSize)
	assert.Equal(t, int64(8), resp.OptimizedSize)
	assert.Equal(t, 92, resp.CompressionRatio)

	// Only one tool invocation on the happy path.
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "gdal_translate", runner.calls[0][0])
	assert.Contains(t, runner.calls[0], "PNG")

	store.AssertExpectations(t)
	layerRepo.AssertExpectations(t)
	cacheRepo.AssertExpectations(t)
}

func TestIngest_RasterFallbackWhenPreviewTooLarge(t *testing.T) {
	runner := &writingRunner{output: []byte("0123456789")}
	uc, store, layerRepo, cacheRepo := newIngestForTest(t, runner, 5)

	store.On("Put", mock.Anything, "big_layer_optimized.tif", []byte("0123456789"), "image/tiff").Return(nil)
	layerRepo.On("Upsert", mock.Anything, mock.Anything).Return(&domain.LayerRecord{ID: "big_layer", Version: 1}, nil)
	cacheRepo.On("InvalidateLayer", mock.Anything, "big_layer").Return(nil)

	resp, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
		LayerName: "Big Layer",
		LayerType: dto.UploadTypeRasterImagery,
	}, "big.tif", []byte(strings.Repeat("y", 40)))

	require.NoError(t, err)
	assert.Equal(t, "big_layer_optimized.tif", resp.FileName)

	require.Len(t, runner.calls, 2)
	assert.Contains(t, runner.calls[1], "GTiff")
	assert.Contains(t, runner.calls[1], "TILED=YES")

	store.AssertExpectations(t)
}

func TestIngest_VectorPackageUsesOgr2ogr(t *testing.T) {
	simplified := []byte(`{"type":"FeatureCollection","features":[]}`)
	runner := &writingRunner{output: simplified}
	uc, store, layerRepo, cacheRepo := newIngestForTest(t, runner, 1024)

	store.On("Put", mock.Anything, "admin_regions_optimized.geojson", simplified, "application/geo+json").Return(nil)
	layerRepo.On("Upsert", mock.Anything, mock.Anything).Return(&domain.LayerRecord{ID: "admin_regions", Version: 2}, nil)
	cacheRepo.On("InvalidateLayer", mock.Anything, "admin_regions").Return(nil)

	resp, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
		LayerName: "Admin Regions",
		LayerType: dto.UploadTypeVectorPackage,
	}, "regions.gpkg", []byte(strings.Repeat("z", 200)))

	require.NoError(t, err)
	assert.Equal(t, "admin_regions", resp.LayerID)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "ogr2ogr", runner.calls[0][0])
	assert.Contains(t, runner.calls[0], "-simplify")
	assert.Contains(t, runner.calls[0], "COORDINATE_PRECISION=6")
}

func TestIngest_VectorTextRoundedInProcess(t *testing.T) {
	runner := &writingRunner{}
	uc, store, layerRepo, cacheRepo := newIngestForTest(t, runner, 1024)

	input := []byte(`{"type":"Point","coordinates":[2.1234567899,41.9876543211]}`)

	store.On("Put", mock.Anything, "ports_optimized.geojson", mock.MatchedBy(func(data []byte) bool {
		return strings.Contains(string(data), "2.123457") && strings.Contains(string(data), "41.987654")
	}), "application/geo+json").Return(nil)
	layerRepo.On("Upsert", mock.Anything, mock.Anything).Return(&domain.LayerRecord{ID: "ports", Version: 1}, nil)
	cacheRepo.On("InvalidateLayer", mock.Anything, "ports").Return(nil)

	_, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
		LayerName: "Ports",
		LayerType: dto.UploadTypeVectorText,
	}, "ports.geojson", input)

	require.NoError(t, err)
	// No external tool for vector text.
	assert.Empty(t, runner.calls)
	store.AssertExpectations(t)
}

func TestIngest_ConversionFailureSurfaces(t *testing.T) {
	runner := &writingRunner{err: fmt.Errorf("exit status 1")}
	uc, store, _, _ := newIngestForTest(t, runner, 1024)

	_, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
		LayerName: "Broken",
		LayerType: dto.UploadTypeRasterImagery,
	}, "broken.tif", []byte("data"))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrConversionFailed.Code, appErr.Code)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_UploadFailure(t *testing.T) {
	runner := &writingRunner{output: []byte("artifact")}
	uc, store, layerRepo, _ := newIngestForTest(t, runner, 1024)

	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("s3 down"))

	_, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
		LayerName: "Flaky",
		LayerType: dto.UploadTypeRasterImagery,
	}, "flaky.tif", []byte("data"))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrUploadFailed.Code, appErr.Code)
	layerRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestIngest_StagingCleanedUp(t *testing.T) {
	runner := &writingRunner{output: []byte("artifact")}
	uc, store, layerRepo, cacheRepo := newIngestForTest(t, runner, 1024)
	stagingDir := uc.stagingDir

	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	layerRepo.On("Upsert", mock.Anything, mock.Anything).Return(&domain.LayerRecord{ID: "clean", Version: 1}, nil)
	cacheRepo.On("InvalidateLayer", mock.Anything, mock.Anything).Return(nil)

	_, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
		LayerName: "Clean",
		LayerType: dto.UploadTypeRasterImagery,
	}, "clean.tif", []byte("data"))
	require.NoError(t, err)

	entries, err := os.ReadDir(stagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging dir should be empty after ingest")
}

func TestIngest_StagingCleanedUpOnFailure(t *testing.T) {
	runner := &writingRunner{err: fmt.Errorf("exit status 1")}
	uc, _, _, _ := newIngestForTest(t, runner, 1024)
	stagingDir := uc.stagingDir

	_, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
		LayerName: "Doomed",
		LayerType: dto.UploadTypeRasterImagery,
	}, "doomed.tif", []byte("data"))
	require.Error(t, err)

	entries, readErr := os.ReadDir(stagingDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestIngest_RejectedPreviewRemoved(t *testing.T) {
	runner := &writingRunner{output: []byte("0123456789")}
	uc, store, layerRepo, cacheRepo := newIngestForTest(t, runner, 5)
	stagingDir := uc.stagingDir

	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	layerRepo.On("Upsert", mock.Anything, mock.Anything).Return(&domain.LayerRecord{ID: "gated", Version: 1}, nil)
	cacheRepo.On("InvalidateLayer", mock.Anything, mock.Anything).Return(nil)

	_, err := uc.Ingest(context.Background(), dto.UploadLayerRequest{
		LayerName: "Gated",
		LayerType: dto.UploadTypeRasterImagery,
	}, "gated.tif", []byte("data"))
	require.NoError(t, err)

	matches, globErr := filepath.Glob(filepath.Join(stagingDir, "*_preview.png"))
	require.NoError(t, globErr)
	assert.Empty(t, matches, "rejected preview must not outlive the ingest")
}
