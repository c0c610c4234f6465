package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/guttosm/b3vap/internal/logger"
	"github.com/guttosm/b3vap/internal/storage"
)

// Import copies every bar of symbol/timeframe found by src into the bars table.
//
// Behavior:
//   - Creates the table if needed.
//   - Skips the import when bars already exist, unless force is set.
//   - Reads every source file before touching the table; a bad shard leaves
//     the stored bars as they were.
//   - Writes in a single transaction. With force, the old rows are deleted in
//     that same transaction, so the table holds either the old set or the new one.
//
// Returns the number of bars inserted (0 when skipped).
func Import(ctx context.Context, src *FileProvider, repo storage.BarsRepository, symbol string, tf models.Timeframe, force bool) (int, error) {
	start := time.Now()

	if err := repo.EnsureSchema(ctx); err != nil {
		return 0, fmt.Errorf("ensure schema: %w", err)
	}

	// Idempotency: skip if already imported, unless force
	existing, err := repo.CountBars(ctx, symbol, tf)
	if err != nil {
		return 0, fmt.Errorf("count existing bars: %w", err)
	}
	if existing > 0 && !force {
		logger.L().Info().Str("symbol", symbol).Str("period", string(tf)).Int("existing", existing).Bool("skipped", true).Msg("already imported")
		return 0, nil
	}

	bars, err := src.LoadAll(ctx, symbol, tf)
	if err != nil {
		return 0, err
	}

	if existing > 0 {
		if err := repo.ReplaceBars(ctx, symbol, tf, bars); err != nil {
			return 0, fmt.Errorf("replace bars: %w", err)
		}
	} else if err := repo.InsertBars(ctx, symbol, tf, bars); err != nil {
		return 0, fmt.Errorf("insert bars: %w", err)
	}

	logger.L().Info().Str("symbol", symbol).Str("period", string(tf)).Int("rows", len(bars)).Int("replaced", existing).Dur("elapsed", time.Since(start)).Bool("force", force).Msg("import done")
	return len(bars), nil
}
