package vap

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/shopspring/decimal"
)

// MaxLevelsPerBar bounds how many price levels a single bar may expand into.
// A tick size far smaller than the bar range is rejected instead of
// enumerating millions of levels.
const MaxLevelsPerBar = 1_000_000

// Params holds the price grid used to discretize bars.
//
// Fields:
//   - TickSize: minimum price increment between two levels (must be > 0).
//   - Digits: decimal places every price is rounded to (must be >= 0).
type Params struct {
	TickSize float64
	Digits   int
}

// Validate rejects grids that cannot be enumerated.
func (p Params) Validate() error {
	if !(p.TickSize > 0) || math.IsInf(p.TickSize, 0) {
		return fmt.Errorf("%w: tick size must be positive, got %v", models.ErrInvalidConfiguration, p.TickSize)
	}
	if p.Digits < 0 {
		return fmt.Errorf("%w: digits must be >= 0, got %d", models.ErrInvalidConfiguration, p.Digits)
	}
	return nil
}

// Aggregate folds bars into a Volume At Price histogram.
//
// For each bar:
//   - volume is taken from Bar.Volume (real volume, falling back to tick volume);
//   - low and high are rounded half-to-even to p.Digits, from the exact
//     binary value of the float (2.675 is stored as 2.67499... and gives 2.67);
//   - a bar without range (high <= low) puts its whole volume at low;
//   - otherwise the levels low, low+tick, ... (never above high) each
//     receive volume / number of levels.
//
// Levels are merged across bars. An empty input yields an empty histogram.
//
// Errors:
//   - models.ErrInvalidConfiguration: invalid Params or a bar that would
//     expand past MaxLevelsPerBar.
//   - models.ErrProviderUnavailable: a bar carries a non-finite price.
func Aggregate(bars []models.Bar, p Params) (*Histogram, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tick := decimal.NewFromFloat(p.TickSize)
	digits := int32(p.Digits)
	h := newHistogram()

	for i, b := range bars {
		if !finite(b.Low) || !finite(b.High) {
			return nil, fmt.Errorf("%w: bar %d has a non-finite price (low=%v high=%v)", models.ErrProviderUnavailable, i, b.Low, b.High)
		}

		volume := b.Volume()
		low := exactDecimal(b.Low).RoundBank(digits)
		high := exactDecimal(b.High).RoundBank(digits)

		// Single-price bar (e.g. an exact doji).
		if high.LessThanOrEqual(low) {
			h.add(low.InexactFloat64(), volume)
			continue
		}

		levels, err := priceLevels(low, high, tick, digits)
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}

		perLevel := volume / float64(len(levels))
		for _, price := range levels {
			h.add(price, perLevel)
		}
	}

	return h, nil
}

// priceLevels enumerates the grid from low towards high stepping by tick.
//
// The count is capped at floor((high-low)/tick)+1 and the walk stops as soon
// as the next level would exceed high; when tick does not divide the range
// the last level stays below high.
func priceLevels(low, high, tick decimal.Decimal, digits int32) ([]float64, error) {
	steps := high.Sub(low).Div(tick).Floor().Add(decimal.NewFromInt(1))
	if steps.GreaterThan(decimal.NewFromInt(MaxLevelsPerBar)) {
		return nil, fmt.Errorf("%w: tick size %s splits range %s..%s into %s levels (max %d)",
			models.ErrInvalidConfiguration, tick, low, high, steps, MaxLevelsPerBar)
	}
	maxSteps := steps.IntPart()

	prices := make([]float64, 0, maxSteps)
	p := low
	for i := int64(0); i < maxSteps; i++ {
		prices = append(prices, p.RoundBank(digits).InexactFloat64())
		p = p.Add(tick)
		if p.GreaterThan(high) {
			break
		}
	}
	return prices, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// exactDecimal returns the exact value of f, which must be finite.
// decimal.NewFromFloat yields the shortest decimal that parses back to f,
// which rounds differently on halves the float cannot hold.
func exactDecimal(f float64) decimal.Decimal {
	if f == 0 {
		return decimal.Zero
	}
	frac, exp := math.Frexp(f)
	mant := int64(frac * (1 << 53))
	exp -= 53
	tz := bits.TrailingZeros64(uint64(mant))
	mant >>= tz
	exp += tz

	m := big.NewInt(mant)
	if exp >= 0 {
		return decimal.NewFromBigInt(m.Lsh(m, uint(exp)), 0)
	}
	// m / 2^k == m * 5^k / 10^k
	k := int64(-exp)
	m.Mul(m, new(big.Int).Exp(big.NewInt(5), big.NewInt(k), nil))
	return decimal.NewFromBigInt(m, int32(-k))
}
