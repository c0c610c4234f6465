package ingestion

import (
	"context"

	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/parquet-go/parquet-go"
)

// parseParquetFile reads a bar file written with the models.Bar schema
// (columns t, o, h, l, c, tv, v, s).
func parseParquetFile(ctx context.Context, path string) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return parquet.ReadFile[models.Bar](path)
}

// WriteParquet stores bars in the layout read by the parquet provider.
func WriteParquet(path string, bars []models.Bar) error {
	return parquet.WriteFile(path, bars)
}
