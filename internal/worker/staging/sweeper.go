package staging

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	"github.com/TjarkGerken/eu-data-tiles/internal/worker"
)

// Sweeper removes staging files a crashed or interrupted ingestion left
// behind. Live conversions are protected by the age threshold; the sweeper
// never touches a file younger than StagingMaxAge.
type Sweeper struct {
	*worker.BaseWorker
	dir      string
	maxAge   time.Duration
	interval time.Duration
}

func NewSweeper(cfg *config.Config, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		BaseWorker: worker.NewBaseWorker("staging-sweeper", logger),
		dir:        cfg.Optimizer.StagingDir,
		maxAge:     cfg.Worker.StagingMaxAge,
		interval:   cfg.Worker.SweepInterval,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// One pass at startup picks up leftovers from the previous run.
	s.Sweep()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.StopChan():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes every regular file in the staging directory older than the
// age threshold. Returns how many files were removed.
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.Logger().Warn("Staging sweep failed to list directory",
			zap.String("dir", s.dir), zap.Error(err))
		return 0
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.Logger().Warn("Failed to remove orphaned staging file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.Logger().Info("Staging sweep removed orphaned files",
			zap.Int("count", removed), zap.String("dir", s.dir))
	}
	return removed
}
