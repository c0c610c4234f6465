package main

//
//  @title           b3vap API
//  @version         1.0
//  @description     Volume At Price (VAP) reports over B3 futures and stock bars.
//  @termsOfService  https://github.com/guttosm/b3vap
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/b3vap
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        vap
//  @tag.description Volume At Price reports
//
//  @tag.name        health
//  @tag.description Liveness and readiness checks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/guttosm/b3vap/config"
	_ "github.com/guttosm/b3vap/docs" // swagger docs
	"github.com/guttosm/b3vap/internal/app"
	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/guttosm/b3vap/internal/ingestion"
	"github.com/guttosm/b3vap/internal/logger"
	"github.com/guttosm/b3vap/internal/service"
	"github.com/guttosm/b3vap/internal/storage"
)

// options are the parsed command line flags on top of the loaded config.
type options struct {
	mode     string
	format   string
	out      string
	force    bool
	parallel int
}

// parseFlags parses args over cfg: every flag defaults to its config value,
// so an explicit flag wins over environment and store.
func parseFlags(cfg *config.Config, args []string) (options, error) {
	var opt options

	fs := pflag.NewFlagSet("b3vap", pflag.ContinueOnError)
	fs.StringVar(&opt.mode, "mode", "vap", "Mode: vap (print report), api, import or export")
	fs.StringVarP(&cfg.VAP.Symbol, "symbol", "s", cfg.VAP.Symbol, "Instrument symbol")
	fs.StringVarP(&cfg.VAP.Period, "period", "p", cfg.VAP.Period, "Timeframe: "+strings.Join(models.TimeframeKeys(), " "))
	fs.IntVarP(&cfg.VAP.Limit, "limit", "l", cfg.VAP.Limit, "Number of bars")
	fs.StringVar(&cfg.VAP.Sort, "sort", cfg.VAP.Sort, "Sort rows by volume or price")
	fs.Float64Var(&cfg.VAP.TickSize, "tick-size", cfg.VAP.TickSize, "Price grid step")
	fs.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Port for API mode")
	fs.StringVar(&cfg.Provider.Dir, "dir", cfg.Provider.Dir, "Directory with exported bar files")
	fs.StringVar(&cfg.Provider.Kind, "provider", cfg.Provider.Kind, "Bar source for vap/api: csv, parquet or postgres")
	fs.StringVar(&opt.format, "format", config.ProviderCSV, "Source file format for import/export: csv or parquet")
	fs.StringVar(&opt.out, "out", "./data/parquet", "Output directory for export mode")
	fs.BoolVar(&opt.force, "force", false, "Re-import bars already in the database")
	fs.IntVar(&opt.parallel, "parallel", 0, "How many files to parse concurrently (0=auto up to CPU, max 7)")

	if err := fs.Parse(args); err != nil {
		return opt, fmt.Errorf("%w: %w", models.ErrInvalidConfiguration, err)
	}
	return opt, cfg.Validate()
}

// buildQuery rejects an invalid period or sort before anything is loaded.
func buildQuery(v config.VAPConfig) (service.Query, error) {
	tf, err := models.ParseTimeframe(v.Period)
	if err != nil {
		return service.Query{}, err
	}
	mode, err := models.ParseSortMode(v.Sort)
	if err != nil {
		return service.Query{}, err
	}
	return service.Query{Symbol: v.Symbol, Timeframe: tf, Limit: v.Limit, Sort: mode, TickSize: v.TickSize}, nil
}

func fileSource(dir, format string, parallel int) (*ingestion.FileProvider, error) {
	switch format {
	case config.ProviderCSV:
		return ingestion.NewCSVProvider(dir).WithParallel(parallel), nil
	case config.ProviderParquet:
		return ingestion.NewParquetProvider(dir).WithParallel(parallel), nil
	default:
		return nil, fmt.Errorf("%w: format %q, use csv or parquet", models.ErrInvalidConfiguration, format)
	}
}

// runReport prints the VAP table of the configured query to stdout.
func runReport(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	q, err := buildQuery(cfg.VAP)
	if err != nil {
		return err
	}

	provider, err := app.NewBarProvider(cfg)
	if err != nil {
		return err
	}
	defer provider.Cleanup()

	report, err := service.NewVAPService(provider, cfg.VAP.Digits).Report(ctx, q)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(stdout, report)
	return err
}

// runImport loads the symbol/period files under --dir into Postgres.
func runImport(ctx context.Context, cfg config.Config, opt options) error {
	tf, err := models.ParseTimeframe(cfg.VAP.Period)
	if err != nil {
		return err
	}
	src, err := fileSource(cfg.Provider.Dir, opt.format, opt.parallel)
	if err != nil {
		return err
	}

	db, err := app.InitPostgres(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	defer func() { _ = db.Close() }()

	_, err = ingestion.Import(ctx, src, storage.NewBarsRepository(db), cfg.VAP.Symbol, tf, opt.force)
	return err
}

// runExport converts the CSV exports of symbol/period into one Parquet file.
func runExport(ctx context.Context, cfg config.Config, opt options) error {
	tf, err := models.ParseTimeframe(cfg.VAP.Period)
	if err != nil {
		return err
	}
	src := ingestion.NewCSVProvider(cfg.Provider.Dir).WithParallel(opt.parallel)
	_, _, err = ingestion.ExportParquet(ctx, src, opt.out, cfg.VAP.Symbol, tf)
	return err
}

// runAPI serves HTTP until SIGINT/SIGTERM.
func runAPI(ctx context.Context, cfg config.Config) error {
	router, cleanup, err := app.InitializeApp(cfg)
	if err != nil {
		return err
	}
	server := startServer(router, cfg.Server.Port)
	gracefulShutdown(ctx, server, cleanup)
	return nil
}

// run executes one mode. Reports go to stdout, logs to stderr.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	opt, err := parseFlags(&cfg, args)
	if err != nil {
		return err
	}

	switch opt.mode {
	case "vap":
		return runReport(ctx, cfg, stdout)
	case "api":
		logger.L().Info().Str("provider", cfg.Provider.Kind).Msg("starting API server")
		return runAPI(ctx, cfg)
	case "import":
		logger.L().Info().Str("symbol", cfg.VAP.Symbol).Str("period", cfg.VAP.Period).Msg("running import")
		return runImport(ctx, cfg, opt)
	case "export":
		return runExport(ctx, cfg, opt)
	default:
		return fmt.Errorf("%w: unknown mode %q", models.ErrInvalidConfiguration, opt.mode)
	}
}

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown waits for SIGINT or SIGTERM, drains the HTTP server and
// runs cleanup (e.g., closing the bar database).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// main is the entry point of the b3vap application.
//
// Modes (selected via --mode flag):
//   - vap:    Prints the VAP report for --symbol/--period/--limit to stdout (default).
//   - api:    Starts the REST API serving the same reports.
//   - import: Loads exported bar files from --dir into PostgreSQL.
//   - export: Merges CSV exports from --dir into a Parquet file under --out.
func main() {
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logger.L().Fatal().Err(err).Msg("b3vap failed")
	}
}
