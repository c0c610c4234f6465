package app

import (
	"fmt"
	"os"

	"github.com/guttosm/b3vap/config"
	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/guttosm/b3vap/internal/ingestion"
	"github.com/guttosm/b3vap/internal/service"
	"github.com/guttosm/b3vap/internal/storage"
)

// Provider is a configured bar source with its readiness check and cleanup.
type Provider struct {
	service.BarProvider
	Ping    func() error
	Cleanup func()
}

// NewBarProvider builds the bar source selected by cfg.Provider.Kind.
//
//   - csv, parquet: history files under cfg.Provider.Dir; ready while the directory exists.
//   - postgres: the bars table, ready while the database answers pings.
//
// A database that cannot be reached is reported as models.ErrProviderUnavailable.
func NewBarProvider(cfg config.Config) (*Provider, error) {
	switch cfg.Provider.Kind {
	case config.ProviderCSV, config.ProviderParquet:
		var files *ingestion.FileProvider
		if cfg.Provider.Kind == config.ProviderParquet {
			files = ingestion.NewParquetProvider(cfg.Provider.Dir)
		} else {
			files = ingestion.NewCSVProvider(cfg.Provider.Dir)
		}
		dir := cfg.Provider.Dir
		return &Provider{
			BarProvider: files,
			Ping:        func() error { return checkDir(dir) },
			Cleanup:     func() {},
		}, nil

	case config.ProviderPostgres:
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
		}
		return &Provider{
			BarProvider: storage.NewBarsRepository(db),
			Ping:        db.Ping,
			Cleanup:     func() { _ = db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown provider %q", models.ErrInvalidConfiguration, cfg.Provider.Kind)
	}
}

func checkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
