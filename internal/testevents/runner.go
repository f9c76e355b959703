package testevents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/root2hdf5/pkg/logger"
)

// Run generates cfg.Files synthetic ROOT files and, when cfg.ListFile is
// set, a path list naming them in index order.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.Files < 1 || cfg.Events < 0 {
		return nil, fmt.Errorf("need at least one file and a non-negative event count, got files=%d events=%d", cfg.Files, cfg.Events)
	}
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "generating synthetic ntuples",
		logger.String("dir", cfg.Dir),
		logger.Int("files", cfg.Files),
		logger.Int("events", cfg.Events),
		logger.Int("workers", cfg.Workers),
		logger.String("tree", cfg.TreeName))

	if err := os.MkdirAll(cfg.Dir, directoryPermission); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	paths, err := generateFiles(ctx, cfg, stats)
	if err != nil {
		return nil, err
	}
	stats.Paths = paths

	if cfg.ListFile != "" {
		if err := writeList(cfg.ListFile, paths); err != nil {
			return nil, err
		}
		logger.Get().Info(ctx, "path list written", logger.String("file", cfg.ListFile))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// generateFiles fans file indexes out to cfg.Workers goroutines.
func generateFiles(ctx context.Context, cfg *Config, stats *Stats) ([]string, error) {
	type fileResult struct {
		index  int
		path   string
		counts fileCounts
		err    error
	}

	workers := minInt(maxInt(cfg.Workers, 1), cfg.Files)
	indexes := make(chan int)
	results := make(chan fileResult, cfg.Files)

	for w := 0; w < workers; w++ {
		go func() {
			for i := range indexes {
				path, counts, err := generateFile(cfg, i)
				results <- fileResult{index: i, path: path, counts: counts, err: err}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := 0; i < cfg.Files; i++ {
			select {
			case <-ctx.Done():
				return
			case indexes <- i:
			}
		}
	}()

	paths := make([]string, cfg.Files)
	for n := 0; n < cfg.Files; n++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		case r := <-results:
			if r.err != nil {
				return nil, fmt.Errorf("failed to generate file %d: %w", r.index, r.err)
			}
			paths[r.index] = r.path
			stats.Events += r.counts.events
			stats.Electrons += r.counts.electrons
			stats.Photons += r.counts.photons
			if cfg.Verbose {
				logger.Get().Debug(ctx, "generated file", logger.String("path", r.path), logger.Int("events", r.counts.events))
			}
		}
	}
	return paths, nil
}

func writeList(path string, paths []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	body := strings.Join(paths, "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), listFilePermission); err != nil {
		return fmt.Errorf("failed to write path list: %w", err)
	}
	return nil
}

// displayFinalStats logs the generation statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.Events) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("files", len(stats.Paths)),
		logger.Int("events", stats.Events),
		logger.Int("electrons", stats.Electrons),
		logger.Int("photons", stats.Photons),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
