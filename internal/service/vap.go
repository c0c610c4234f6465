package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/guttosm/b3vap/internal/logger"
	"github.com/guttosm/b3vap/internal/vap"
)

// BarProvider is the upstream bar source (files, database, terminal bridge).
//
// Bars returns the newest count bars of symbol/timeframe in chronological
// order. An empty result is treated as unavailable data by the service.
type BarProvider interface {
	Bars(ctx context.Context, symbol string, tf models.Timeframe, count int) ([]models.Bar, error)
}

// Query describes one VAP request.
type Query struct {
	Symbol    string
	Timeframe models.Timeframe
	Limit     int
	Sort      models.SortMode
	TickSize  float64
}

// Validate rejects a query before any bar is fetched.
func (q Query) Validate() error {
	var invalid []string
	if strings.TrimSpace(q.Symbol) == "" {
		invalid = append(invalid, "symbol")
	}
	if q.Timeframe.Duration() == 0 {
		invalid = append(invalid, "period")
	}
	if q.Limit < 1 {
		invalid = append(invalid, "limit")
	}
	if q.Sort != models.SortByVolume && q.Sort != models.SortByPrice {
		invalid = append(invalid, "sort")
	}
	if !(q.TickSize > 0) {
		invalid = append(invalid, "tick_size")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: invalid query parameters %v", models.ErrInvalidConfiguration, invalid)
	}
	return nil
}

// Result is a computed histogram with the context it was built from.
type Result struct {
	Query     Query
	Bars      int
	Digits    int
	Histogram *vap.Histogram
}

// VAPService defines business logic for building VAP reports.
type VAPService interface {
	Histogram(ctx context.Context, q Query) (*Result, error)
	Report(ctx context.Context, q Query) (string, error)
}

type vapService struct {
	provider BarProvider
	digits   int
}

// NewVAPService wires a provider with the rounding digits of the process configuration.
func NewVAPService(provider BarProvider, digits int) VAPService {
	return &vapService{provider: provider, digits: digits}
}

// Histogram fetches the bars of q and aggregates them.
//
// Errors:
//   - models.ErrInvalidConfiguration: invalid query or price grid.
//   - models.ErrProviderUnavailable: the provider failed or returned no bars.
//     Failures are not retried and no partial histogram is returned.
func (s *vapService) Histogram(ctx context.Context, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	params := vap.Params{TickSize: q.TickSize, Digits: s.digits}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	bars, err := s.provider.Bars(ctx, q.Symbol, q.Timeframe, q.Limit)
	if err != nil {
		if errors.Is(err, models.ErrProviderUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s: %v", models.ErrProviderUnavailable, q.Symbol, q.Timeframe, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s %s", models.ErrProviderUnavailable, q.Symbol, q.Timeframe)
	}

	h, err := vap.Aggregate(bars, params)
	if err != nil {
		return nil, err
	}

	logger.L().Debug().
		Str("symbol", q.Symbol).
		Str("period", string(q.Timeframe)).
		Int("bars", len(bars)).
		Int("levels", h.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("vap aggregated")

	return &Result{Query: q, Bars: len(bars), Digits: s.digits, Histogram: h}, nil
}

// Report renders the histogram of q as the plain-text VAP table.
func (s *vapService) Report(ctx context.Context, q Query) (string, error) {
	res, err := s.Histogram(ctx, q)
	if err != nil {
		return "", err
	}
	return vap.Render(res.Histogram, q.Sort, s.digits), nil
}
