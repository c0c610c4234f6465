package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/guttosm/b3vap/internal/logger"
)

const maxParallel = 7

// fileReader parses one bar file.
type fileReader func(ctx context.Context, path string) ([]models.Bar, error)

// FileProvider serves bars from exported history files in a directory.
//
// For symbol S and timeframe T it reads "S_T.<ext>" and every shard
// "S_T_*.<ext>" (e.g. monthly exports). Shards are parsed concurrently,
// merged chronologically and de-duplicated by bar time (later shards win).
type FileProvider struct {
	dir      string
	ext      string
	read     fileReader
	parallel int
}

// NewCSVProvider serves MetaTrader 5 CSV exports from dir.
func NewCSVProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir, ext: "csv", read: parseCSVFile}
}

// NewParquetProvider serves Parquet bar files from dir.
func NewParquetProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir, ext: "parquet", read: parseParquetFile}
}

// WithParallel caps how many shards are parsed at once (0 = min(7, NumCPU)).
func (p *FileProvider) WithParallel(n int) *FileProvider {
	p.parallel = n
	return p
}

// Bars returns the newest count bars for symbol/timeframe in chronological order.
//
// Returns an error wrapping models.ErrProviderUnavailable when no file
// matches, and the first parse error otherwise.
func (p *FileProvider) Bars(ctx context.Context, symbol string, tf models.Timeframe, count int) ([]models.Bar, error) {
	bars, err := p.LoadAll(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

// LoadAll returns every bar found for symbol/timeframe, oldest first.
func (p *FileProvider) LoadAll(ctx context.Context, symbol string, tf models.Timeframe) ([]models.Bar, error) {
	files, err := p.shards(symbol, tf)
	if err != nil {
		return nil, err
	}

	workers := p.workers()
	logger.L().Debug().Str("symbol", symbol).Str("period", string(tf)).Int("files", len(files)).Int("max_parallel", workers).Msg("loading bar files")

	// errgroup will cancel siblings on first error.
	results := make([][]models.Bar, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			start := time.Now()
			base := filepath.Base(file)

			bars, err := p.read(gctx, file)
			if err != nil {
				logger.L().Error().Str("file", base).Err(err).Msg("file failed")
				return fmt.Errorf("file %s: %w", file, err)
			}
			results[i] = bars
			logger.L().Debug().Int("idx", i+1).Int("total", len(files)).Str("file", base).Int("bars", len(bars)).Dur("elapsed", time.Since(start)).Msg("file done")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(results), nil
}

// shards lists the files of symbol/timeframe in name order.
func (p *FileProvider) shards(symbol string, tf models.Timeframe) ([]string, error) {
	stem := globEscape(symbol + "_" + string(tf))
	var files []string
	for _, pattern := range []string{stem + "." + p.ext, stem + "_*." + p.ext} {
		matches, err := filepath.Glob(filepath.Join(p.dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files for %s %s in %s", models.ErrProviderUnavailable, p.ext, symbol, tf, p.dir)
	}
	sort.Strings(files)
	return files, nil
}

func (p *FileProvider) workers() int {
	// Concurrency: default to min(7, NumCPU), or use provided clamp(1..7)
	if p.parallel > 0 {
		return min(p.parallel, maxParallel)
	}
	return min(runtime.NumCPU(), maxParallel)
}

// merge concatenates shards, orders bars by time and keeps the last bar seen
// for a repeated timestamp.
func merge(shards [][]models.Bar) []models.Bar {
	var all []models.Bar
	for _, s := range shards {
		all = append(all, s...)
	}
	slices.SortStableFunc(all, func(a, b models.Bar) int { return a.Time.Compare(b.Time) })

	out := all[:0]
	for _, b := range all {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// globEscape quotes the glob metacharacters filepath.Match understands.
func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
