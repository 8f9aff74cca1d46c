package gdal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	"github.com/TjarkGerken/eu-data-tiles/internal/infrastructure/gdal"
	apperrors "github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
)

type fakeRunner struct {
	tool   string
	args   []string
	stderr string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.tool = name
	f.args = args
	return f.stderr, f.err
}

func newConverter(runner gdal.Runner) *gdal.Converter {
	cfg := &config.OptimizerConfig{
		GDALTranslatePath: "gdal_translate",
		OGR2OGRPath:       "ogr2ogr",
	}
	return gdal.NewConverterWithRunner(cfg, runner, zap.NewNop())
}

func TestConverter_TranslateLossyPreview(t *testing.T) {
	runner := &fakeRunner{}
	c := newConverter(runner)

	err := c.TranslateLossyPreview(context.Background(), "in.tif", "out.png")
	require.NoError(t, err)

	assert.Equal(t, "gdal_translate", runner.tool)
	assert.Contains(t, runner.args, "PNG")
	assert.Contains(t, runner.args, "10%")
	assert.Contains(t, runner.args, "in.tif")
	assert.Contains(t, runner.args, "out.png")
}

func TestConverter_TranslateTiledFallback(t *testing.T) {
	runner := &fakeRunner{}
	c := newConverter(runner)

	err := c.TranslateTiledFallback(context.Background(), "in.tif", "out.tif")
	require.NoError(t, err)

	assert.Equal(t, "gdal_translate", runner.tool)
	assert.Contains(t, runner.args, "TILED=YES")
	assert.Contains(t, runner.args, "COMPRESS=DEFLATE")
	assert.Contains(t, runner.args, "PREDICTOR=2")
	assert.Contains(t, runner.args, "25%")
}

func TestConverter_SimplifyVectorPackage(t *testing.T) {
	runner := &fakeRunner{}
	c := newConverter(runner)

	err := c.SimplifyVectorPackage(context.Background(), "in.gpkg", "out.geojson")
	require.NoError(t, err)

	assert.Equal(t, "ogr2ogr", runner.tool)
	assert.Contains(t, runner.args, "GeoJSON")
	assert.Contains(t, runner.args, "COORDINATE_PRECISION=6")
}

func TestConverter_StderrPolicy(t *testing.T) {
	tests := []struct {
		name    string
		stderr  string
		runErr  error
		wantErr bool
	}{
		{"clean run", "", nil, false},
		{"warnings only", "Warning 1: TIFF tag unsupported\nWarning 6: driver hint\n", nil, false},
		{"progress meter only", "0...10...20...30...100\n", nil, false},
		{"hard error text", "ERROR 4: in.tif: No such file or directory\n", nil, true},
		{"non-zero exit", "", errors.New("exit status 1"), true},
		{"warnings then error", "Warning 1: ok\nERROR 1: boom\n", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConverter(&fakeRunner{stderr: tt.stderr, err: tt.runErr})
			err := c.TranslateLossyPreview(context.Background(), "in.tif", "out.png")

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := err.(*apperrors.AppError)
			require.True(t, ok)
			assert.Equal(t, "CONVERSION_FAILED", appErr.Code)
		})
	}
}
