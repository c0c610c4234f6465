//go:build integration
// +build integration

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/b3vap/internal/domain/models"
)

// startPostgres spins up a Postgres container and returns a DSN and terminate func.
func startPostgres(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "b3vap",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=b3vap sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", host, port.Port(), "b3vap")
	terminate = func() { _ = container.Terminate(context.Background()) }
	return dsn, terminate
}

func openDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return db
}

func minuteBars(start time.Time, n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		p := 125000 + float64(i)*5
		bars[i] = models.Bar{
			Time: start.Add(time.Duration(i) * time.Minute),
			Open: p, High: p + 10, Low: p - 5, Close: p + 5,
			TickVolume: int64(10 + i), RealVolume: int64(100 * (i + 1)), Spread: 1,
		}
	}
	return bars
}

func TestRepository_Integration_TableDriven(t *testing.T) {
	dsn, terminate := startPostgres(t)
	defer terminate()
	db := openDB(t, dsn)
	defer db.Close()

	ctx := context.Background()
	repo := NewBarsRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	// idempotent
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema twice: %v", err)
	}

	start := time.Date(2025, 9, 12, 9, 0, 0, 0, time.UTC)
	all := minuteBars(start, 10)
	if err := repo.InsertBars(ctx, "WIN$N", models.M1, all[:6]); err != nil {
		t.Fatalf("insert batch 1: %v", err)
	}
	if err := repo.InsertBars(ctx, "WIN$N", models.M1, all[6:]); err != nil {
		t.Fatalf("insert batch 2: %v", err)
	}
	if err := repo.InsertBars(ctx, "WIN$N", models.M5, all[:2]); err != nil {
		t.Fatalf("insert M5: %v", err)
	}

	cases := []struct {
		name      string
		symbol    string
		tf        models.Timeframe
		count     int
		wantLen   int
		wantFirst time.Time
	}{
		{name: "newest four", symbol: "WIN$N", tf: models.M1, count: 4, wantLen: 4, wantFirst: all[6].Time},
		{name: "more than stored", symbol: "WIN$N", tf: models.M1, count: 50, wantLen: 10, wantFirst: all[0].Time},
		{name: "other timeframe", symbol: "WIN$N", tf: models.M5, count: 50, wantLen: 2, wantFirst: all[0].Time},
		{name: "unknown symbol", symbol: "VALE3", tf: models.M1, count: 50, wantLen: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bars, err := repo.Bars(ctx, tc.symbol, tc.tf, tc.count)
			if err != nil {
				t.Fatalf("Bars: %v", err)
			}
			if len(bars) != tc.wantLen {
				t.Fatalf("len=%d, want %d", len(bars), tc.wantLen)
			}
			if tc.wantLen == 0 {
				return
			}
			if !bars[0].Time.Equal(tc.wantFirst) {
				t.Fatalf("first=%v, want %v", bars[0].Time, tc.wantFirst)
			}
			for i := 1; i < len(bars); i++ {
				if !bars[i].Time.After(bars[i-1].Time) {
					t.Fatalf("not chronological at %d", i)
				}
			}
		})
	}

	t.Run("values survive the copy", func(t *testing.T) {
		bars, err := repo.Bars(ctx, "WIN$N", models.M1, 1)
		if err != nil || len(bars) != 1 {
			t.Fatalf("Bars: %v", err)
		}
		want := all[9]
		got := bars[0]
		if got.High != want.High || got.Low != want.Low || got.RealVolume != want.RealVolume || got.TickVolume != want.TickVolume {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("count and delete", func(t *testing.T) {
		n, err := repo.CountBars(ctx, "WIN$N", models.M1)
		if err != nil || n != 10 {
			t.Fatalf("count=%d err=%v", n, err)
		}
		if err := repo.DeleteBars(ctx, "WIN$N", models.M1); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if n, _ := repo.CountBars(ctx, "WIN$N", models.M1); n != 0 {
			t.Fatalf("expected 0 rows after delete, got %d", n)
		}
		if n, _ := repo.CountBars(ctx, "WIN$N", models.M5); n != 2 {
			t.Fatalf("delete must keep other timeframes, got %d", n)
		}
	})

	t.Run("replace is atomic", func(t *testing.T) {
		// a duplicate time inside the new set aborts the copy
		bad := append(minuteBars(start, 3), minuteBars(start, 1)...)
		if err := repo.ReplaceBars(ctx, "WIN$N", models.M5, bad); err == nil {
			t.Fatalf("expected primary key violation")
		}
		if n, _ := repo.CountBars(ctx, "WIN$N", models.M5); n != 2 {
			t.Fatalf("failed replace must keep old rows, got %d", n)
		}
		if err := repo.ReplaceBars(ctx, "WIN$N", models.M5, minuteBars(start, 3)); err != nil {
			t.Fatalf("replace: %v", err)
		}
		if n, _ := repo.CountBars(ctx, "WIN$N", models.M5); n != 3 {
			t.Fatalf("want 3 rows after replace, got %d", n)
		}
	})

	t.Run("duplicate bar rejected", func(t *testing.T) {
		if err := repo.InsertBars(ctx, "WIN$N", models.M5, all[:1]); err == nil {
			t.Fatalf("expected primary key violation")
		}
	})
}
