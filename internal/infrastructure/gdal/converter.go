package gdal

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	"github.com/TjarkGerken/eu-data-tiles/internal/pkg/errors"
)

// Runner executes an external conversion tool. Kept as an interface so the
// optimizer can be tested without GDAL binaries installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

type execRunner struct {
	timeout time.Duration
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

// Converter drives gdal_translate and ogr2ogr for ingestion-time
// optimization. Paths come from config; the tools are collaborators, the
// service never decodes the heavy formats itself.
type Converter struct {
	translatePath string
	ogr2ogrPath   string
	runner        Runner
	logger        *zap.Logger
}

func NewConverter(cfg *config.OptimizerConfig, logger *zap.Logger) *Converter {
	return &Converter{
		translatePath: cfg.GDALTranslatePath,
		ogr2ogrPath:   cfg.OGR2OGRPath,
		runner:        &execRunner{timeout: cfg.ToolTimeout},
		logger:        logger,
	}
}

// NewConverterWithRunner injects a custom runner; used by tests.
func NewConverterWithRunner(cfg *config.OptimizerConfig, runner Runner, logger *zap.Logger) *Converter {
	c := NewConverter(cfg, logger)
	c.runner = runner
	return c
}

// TranslateLossyPreview renders an aggressively downsampled lossy PNG at
// 10% linear dimensions. Callers gate the result against the size ceiling.
func (c *Converter) TranslateLossyPreview(ctx context.Context, src, dst string) error {
	return c.run(ctx, c.translatePath,
		"-of", "PNG",
		"-outsize", "10%", "10%",
		"-scale",
		src, dst,
	)
}

// TranslateTiledFallback produces the compressed, predictor-optimized tiled
// GeoTIFF used when the lossy preview exceeds the ceiling. Accepted
// unconditionally by the caller.
func (c *Converter) TranslateTiledFallback(ctx context.Context, src, dst string) error {
	return c.run(ctx, c.translatePath,
		"-of", "GTiff",
		"-co", "TILED=YES",
		"-co", "COMPRESS=DEFLATE",
		"-co", "PREDICTOR=2",
		"-outsize", "25%", "25%",
		src, dst,
	)
}

// SimplifyVectorPackage converts a vector package to GeoJSON with a fixed
// simplification tolerance and 6-decimal coordinate precision.
func (c *Converter) SimplifyVectorPackage(ctx context.Context, src, dst string) error {
	return c.run(ctx, c.ogr2ogrPath,
		"-f", "GeoJSON",
		"-simplify", "0.0001",
		"-lco", "COORDINATE_PRECISION=6",
		dst, src,
	)
}

func (c *Converter) run(ctx context.Context, tool string, args ...string) error {
	c.logger.Debug("Running conversion tool",
		zap.String("tool", tool),
		zap.Strings("args", args))

	stderr, err := c.runner.Run(ctx, tool, args...)
	if err != nil {
		c.logger.Error("Conversion tool failed",
			zap.String("tool", tool),
			zap.String("stderr", stderr),
			zap.Error(err))
		return errors.ErrConversionFailed.WithDetails(map[string]interface{}{
			"tool":   tool,
			"stderr": stderr,
		})
	}

	if msg, ok := nonWarningStderr(stderr); ok {
		c.logger.Error("Conversion tool reported errors",
			zap.String("tool", tool),
			zap.String("stderr", msg))
		return errors.ErrConversionFailed.WithDetails(map[string]interface{}{
			"tool":   tool,
			"stderr": msg,
		})
	}
	return nil
}

// nonWarningStderr reports stderr output that is not a warning. GDAL tools
// write progress dots and "Warning N: ..." lines on success; anything else
// on stderr means the conversion went wrong even with a zero exit code.
func nonWarningStderr(stderr string) (string, bool) {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Warning") {
			continue
		}
		if strings.Trim(line, ".0123456789 ") == "" {
			// progress meter
			continue
		}
		return line, true
	}
	return "", false
}
