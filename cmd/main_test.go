package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/guttosm/b3vap/internal/ingestion"
)

type dummyHandler struct{}

func (d dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

// isolate points the config store at a missing file and blanks the env keys.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SYMBOL", "PERIOD", "LIMIT", "SORT", "TICK_SIZE", "DIGITOS", "PROVIDER", "DATA_DIR", "SERVER_PORT"} {
		t.Setenv(k, "")
	}
	t.Setenv("MTCLI_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
}

const barsCSV = "<DATE>\t<TIME>\t<OPEN>\t<HIGH>\t<LOW>\t<CLOSE>\t<TICKVOL>\t<VOL>\t<SPREAD>\n" +
	"2025.09.12\t09:00:00\t10.00\t10.00\t10.00\t10.00\t5\t50\t1\n" +
	"2025.09.12\t09:01:00\t10.00\t10.10\t10.00\t10.05\t5\t30\t1\n"

func dataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "WIN$N_M1.csv"), []byte(barsCSV), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return dir
}

func TestRun_Report(t *testing.T) {
	isolate(t)
	dir := dataDir(t)

	var out bytes.Buffer
	err := run(context.Background(), []string{"--dir", dir, "-s", "WIN$N", "-p", "m1", "--tick-size", "0.05"}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "--------------------------------------------\n" +
		"Volume At Price (VAP)\n" +
		"--------------------------------------------\n" +
		"Preço        |       Volume | %\n" +
		"--------------------------------------------\n" +
		"10.00 |           60 |  75.0\n" +
		"10.05 |           10 |  12.5\n" +
		"10.10 |           10 |  12.5\n"
	if out.String() != want {
		t.Fatalf("unexpected report:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestRun_Errors(t *testing.T) {
	isolate(t)
	dir := dataDir(t)

	cases := []struct {
		name string
		args []string
		want error
	}{
		{name: "invalid period", args: []string{"--dir", dir, "-p", "W1"}, want: models.ErrInvalidConfiguration},
		{name: "invalid sort", args: []string{"--dir", dir, "--sort", "time"}, want: models.ErrInvalidConfiguration},
		{name: "zero tick", args: []string{"--dir", dir, "--tick-size", "0"}, want: models.ErrInvalidConfiguration},
		{name: "unknown flag", args: []string{"--bogus"}, want: models.ErrInvalidConfiguration},
		{name: "unknown mode", args: []string{"--dir", dir, "--mode", "stream"}, want: models.ErrInvalidConfiguration},
		{name: "no data", args: []string{"--dir", dir, "-s", "VALE3"}, want: models.ErrProviderUnavailable},
		{name: "help", args: []string{"--help"}, want: pflag.ErrHelp},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), tc.args, &out)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if out.Len() != 0 {
				t.Fatalf("nothing may reach stdout on error, got %q", out.String())
			}
		})
	}
}

func TestRun_Export(t *testing.T) {
	isolate(t)
	dir := dataDir(t)
	dst := filepath.Join(t.TempDir(), "pq")

	if err := run(context.Background(), []string{"--mode", "export", "--dir", dir, "--out", dst}, &bytes.Buffer{}); err != nil {
		t.Fatalf("export: %v", err)
	}

	bars, err := ingestion.NewParquetProvider(dst).Bars(context.Background(), "WIN$N", models.M1, 10)
	if err != nil || len(bars) != 2 {
		t.Fatalf("read back: bars=%d err=%v", len(bars), err)
	}

	var out bytes.Buffer
	err = run(context.Background(), []string{"--provider", "parquet", "--dir", dst, "--tick-size", "0.05", "--sort", "price"}, &out)
	if err != nil || out.Len() == 0 {
		t.Fatalf("report from parquet: %v", err)
	}
}

func TestStartServerAndShutdown(t *testing.T) {
	srv := startServer(dummyHandler{}, "0") // random port
	if srv == nil {
		t.Fatalf("expected server")
	}

	// Give server a moment to start
	time.Sleep(50 * time.Millisecond)

	shutdownCtx, c := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer c()
	if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		t.Fatalf("shutdown err: %v", err)
	}
}

func TestGracefulShutdown_SignalPath(t *testing.T) {
	srv := startServer(dummyHandler{}, "0")

	cleaned := make(chan struct{}, 1)
	go func() {
		gracefulShutdown(context.Background(), srv, func() { close(cleaned) })
	}()

	// Give the goroutine time to set up signal notifications
	time.Sleep(50 * time.Millisecond)

	p, _ := os.FindProcess(os.Getpid())
	_ = p.Signal(syscall.SIGTERM)

	select {
	case <-cleaned:
	case <-time.After(2 * time.Second):
		t.Fatalf("cleanup not called after SIGTERM")
	}
}
