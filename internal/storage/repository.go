package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/guttosm/b3vap/internal/domain/models"
	pq "github.com/lib/pq"
)

// schema creates the bars table used by the Postgres provider.
const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol      TEXT             NOT NULL,
	timeframe   TEXT             NOT NULL,
	bar_time    TIMESTAMPTZ      NOT NULL,
	open        DOUBLE PRECISION NOT NULL,
	high        DOUBLE PRECISION NOT NULL,
	low         DOUBLE PRECISION NOT NULL,
	close       DOUBLE PRECISION NOT NULL,
	tick_volume BIGINT           NOT NULL DEFAULT 0,
	real_volume BIGINT           NOT NULL DEFAULT 0,
	spread      BIGINT           NOT NULL DEFAULT 0,
	PRIMARY KEY (symbol, timeframe, bar_time)
)`

// BarsRepository defines contract for DB operations on bars.
type BarsRepository interface {
	EnsureSchema(ctx context.Context) error
	InsertBars(ctx context.Context, symbol string, tf models.Timeframe, bars []models.Bar) error
	ReplaceBars(ctx context.Context, symbol string, tf models.Timeframe, bars []models.Bar) error
	DeleteBars(ctx context.Context, symbol string, tf models.Timeframe) error
	CountBars(ctx context.Context, symbol string, tf models.Timeframe) (int, error)
	Bars(ctx context.Context, symbol string, tf models.Timeframe, count int) ([]models.Bar, error)
}

type barsRepository struct {
	db *sql.DB
}

func NewBarsRepository(db *sql.DB) BarsRepository {
	return &barsRepository{db: db}
}

// EnsureSchema creates the bars table if it does not exist.
func (r *barsRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// InsertBars bulk loads bars for one symbol/timeframe in a single transaction.
func (r *barsRepository) InsertBars(ctx context.Context, symbol string, tf models.Timeframe, bars []models.Bar) error {
	return r.copyBars(ctx, symbol, tf, bars, false)
}

// ReplaceBars swaps the stored bars of symbol/timeframe for bars. The delete
// and the bulk load share one transaction, so a failure keeps the old rows.
func (r *barsRepository) ReplaceBars(ctx context.Context, symbol string, tf models.Timeframe, bars []models.Bar) error {
	return r.copyBars(ctx, symbol, tf, bars, true)
}

func (r *barsRepository) copyBars(ctx context.Context, symbol string, tf models.Timeframe, bars []models.Bar, replace bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	if replace {
		if _, err := tx.ExecContext(ctx, deleteBarsSQL, symbol, string(tf)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete bars: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"bars",
		"symbol",
		"timeframe",
		"bar_time",
		"open",
		"high",
		"low",
		"close",
		"tick_volume",
		"real_volume",
		"spread",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			symbol,
			string(tf),
			b.Time,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.TickVolume,
			b.RealVolume,
			b.Spread,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

const deleteBarsSQL = `DELETE FROM bars WHERE symbol = $1 AND timeframe = $2`

// DeleteBars removes every bar of symbol/timeframe.
func (r *barsRepository) DeleteBars(ctx context.Context, symbol string, tf models.Timeframe) error {
	_, err := r.db.ExecContext(ctx, deleteBarsSQL, symbol, string(tf))
	return err
}

// CountBars returns how many bars are stored for symbol/timeframe.
func (r *barsRepository) CountBars(ctx context.Context, symbol string, tf models.Timeframe) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bars WHERE symbol = $1 AND timeframe = $2`, symbol, string(tf)).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Bars returns the newest count bars of symbol/timeframe, oldest first.
// An unknown symbol yields an empty slice and no error.
func (r *barsRepository) Bars(ctx context.Context, symbol string, tf models.Timeframe, count int) ([]models.Bar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT bar_time, open, high, low, close, tick_volume, real_volume, spread
		FROM bars
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY bar_time DESC
		LIMIT $3
	`, symbol, string(tf), count)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.TickVolume, &b.RealVolume, &b.Spread); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}

	// newest-first from the query; callers expect chronological order
	slices.Reverse(bars)
	return bars, nil
}
