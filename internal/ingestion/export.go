package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/guttosm/b3vap/internal/logger"
)

// ExportParquet merges every shard src holds for symbol/timeframe into a
// single "<symbol>_<timeframe>.parquet" file under dstDir, readable by the
// parquet provider. It returns the written path and bar count.
func ExportParquet(ctx context.Context, src *FileProvider, dstDir, symbol string, tf models.Timeframe) (string, int, error) {
	start := time.Now()

	bars, err := src.LoadAll(ctx, symbol, tf)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create %s: %w", dstDir, err)
	}
	path := filepath.Join(dstDir, symbol+"_"+string(tf)+".parquet")
	if err := WriteParquet(path, bars); err != nil {
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}

	logger.L().Info().Str("symbol", symbol).Str("period", string(tf)).Str("file", path).Int("rows", len(bars)).Dur("elapsed", time.Since(start)).Msg("export done")
	return path, len(bars), nil
}
