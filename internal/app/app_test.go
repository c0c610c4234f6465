package app

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guttosm/b3vap/config"
	"github.com/guttosm/b3vap/internal/domain/models"
)

func testConfig(kind, dir string) config.Config {
	return config.Config{
		VAP:      config.VAPConfig{Symbol: "WIN$N", Period: "M1", Limit: 566, Sort: "volume", TickSize: 0.05, Digits: 2},
		Provider: config.ProviderConfig{Kind: kind, Dir: dir},
		Server:   config.ServerConfig{Port: "8080"},
		Postgres: pgConfig.Postgres,
	}
}

const barsCSV = "<DATE>\t<TIME>\t<OPEN>\t<HIGH>\t<LOW>\t<CLOSE>\t<TICKVOL>\t<VOL>\t<SPREAD>\n" +
	"2025.09.12\t09:00:00\t10.00\t10.00\t10.00\t10.00\t5\t50\t1\n" +
	"2025.09.12\t09:01:00\t10.00\t10.10\t10.00\t10.05\t5\t30\t1\n"

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestInitializeApp_CSV(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "WIN$N_M1.csv"), []byte(barsCSV), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	router, cleanup, err := InitializeApp(testConfig(config.ProviderCSV, dir))
	if err != nil || router == nil || cleanup == nil {
		t.Fatalf("InitializeApp failed: %v", err)
	}
	defer cleanup()

	w := serve(router, "/api/v1/vap")
	if w.Code != http.StatusOK {
		t.Fatalf("vap status=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "10.00 |           60 |  75.0") {
		t.Fatalf("unexpected report:\n%s", w.Body.String())
	}

	if w := serve(router, "/api/v1/vap?symbol=VALE3"); w.Code != http.StatusNotFound {
		t.Fatalf("missing symbol status=%d", w.Code)
	}
	if w := serve(router, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", w.Code)
	}
	if w := serve(router, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", w.Code)
	}
}

func TestInitializeApp_MissingDataDirIsNotReady(t *testing.T) {
	router, cleanup, err := InitializeApp(testConfig(config.ProviderParquet, filepath.Join(t.TempDir(), "gone")))
	if err != nil {
		t.Fatalf("InitializeApp: %v", err)
	}
	defer cleanup()

	if w := serve(router, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", w.Code)
	}
}

func TestInitializeApp_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}

	old := postgresOpener
	postgresOpener = func(cfg config.Config) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { postgresOpener = old })

	router, cleanup, err := InitializeApp(testConfig(config.ProviderPostgres, ""))
	if err != nil {
		t.Fatalf("InitializeApp: %v", err)
	}

	ts := time.Date(2025, 9, 12, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"bar_time", "open", "high", "low", "close", "tick_volume", "real_volume", "spread"}).
		AddRow(ts.Add(time.Minute), 10.0, 10.10, 10.0, 10.05, 5, 30, 1).
		AddRow(ts, 10.0, 10.0, 10.0, 10.0, 5, 50, 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bars")).WithArgs("WIN$N", "M1", 566).WillReturnRows(rows)
	mock.ExpectPing()
	mock.ExpectClose()

	if w := serve(router, "/api/v1/vap/levels"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"total_volume":80`) {
		t.Fatalf("levels status=%d body=%s", w.Code, w.Body.String())
	}
	if w := serve(router, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", w.Code)
	}

	cleanup()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInitializeApp_Failures(t *testing.T) {
	old := postgresOpener
	postgresOpener = func(config.Config) (*sql.DB, error) { return nil, errors.New("connection refused") }
	t.Cleanup(func() { postgresOpener = old })

	cases := []struct {
		name string
		kind string
		want error
	}{
		{name: "database down", kind: config.ProviderPostgres, want: models.ErrProviderUnavailable},
		{name: "unknown provider", kind: "mt5", want: models.ErrInvalidConfiguration},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, cleanup, err := InitializeApp(testConfig(tc.kind, t.TempDir()))
			if !errors.Is(err, tc.want) || r != nil || cleanup != nil {
				t.Fatalf("want %v, got err=%v", tc.want, err)
			}
		})
	}
}

// TestInitPostgres_InvalidHost expects ping failure.
func TestInitPostgres_InvalidHost(t *testing.T) {
	cfg := config.Config{Postgres: config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     54329, // unlikely mapped
		User:     "x",
		Password: "y",
		DBName:   "z",
		SSLMode:  "disable",
	}}
	db, err := InitPostgres(cfg)
	if err == nil {
		_ = db.Close()
		t.Fatalf("expected error connecting to invalid DB")
	}
}
