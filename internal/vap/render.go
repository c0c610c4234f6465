package vap

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/guttosm/b3vap/internal/domain/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoDataMessage is the whole report when the histogram has no levels.
const NoDataMessage = "Nenhum dado de VAP encontrado.\n"

const ruleLine = "--------------------------------------------"

// volumePrinter groups integer volumes the Brazilian way (1.234.567).
var volumePrinter = message.NewPrinter(language.BrazilianPortuguese)

// Row is one rendered level: its price, volume and share of the total volume.
type Row struct {
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
	Percent float64 `json:"percent"`
}

// Rows sorts the histogram levels for mode and annotates each with its
// percentage of the total volume.
//
// SortByPrice orders ascending by price; any other mode orders descending by
// volume, keeping first-touched order between equal volumes. A zero total is
// treated as 1 so every percentage is 0.
func Rows(h *Histogram, mode models.SortMode) []Row {
	levels := h.Levels()
	if len(levels) == 0 {
		return nil
	}

	if mode == models.SortByPrice {
		slices.SortStableFunc(levels, func(a, b Level) int { return cmp.Compare(a.Price, b.Price) })
	} else {
		slices.SortStableFunc(levels, func(a, b Level) int { return cmp.Compare(b.Volume, a.Volume) })
	}

	total := 0.0
	for _, l := range levels {
		total += l.Volume
	}
	if total == 0 {
		total = 1.0
	}

	rows := make([]Row, len(levels))
	for i, l := range levels {
		rows[i] = Row{Price: l.Price, Volume: l.Volume, Percent: l.Volume / total * 100}
	}
	return rows
}

// Render formats the histogram as the plain-text VAP table.
//
// Layout:
//
//	--------------------------------------------
//	Volume At Price (VAP)
//	--------------------------------------------
//	Preço        |       Volume | %
//	--------------------------------------------
//	100.05 |           40 |  40.0
//
// Prices use digits decimals and are right-aligned to the widest one,
// volumes are rounded to integers with "." as thousands separator and the
// percentage is printed with one decimal in a 5-wide field. Every line ends
// with a newline. An empty histogram renders NoDataMessage.
func Render(h *Histogram, mode models.SortMode, digits int) string {
	rows := Rows(h, mode)
	if len(rows) == 0 {
		return NoDataMessage
	}

	lines := []string{
		ruleLine,
		"Volume At Price (VAP)",
		ruleLine,
		fmt.Sprintf("%-12s | %12s | %%", "Preço", "Volume"),
		ruleLine,
	}

	prices := make([]string, len(rows))
	width := 0
	for i, r := range rows {
		prices[i] = fmt.Sprintf("%.*f", digits, r.Price)
		width = max(width, len(prices[i]))
	}

	for i, r := range rows {
		lines = append(lines, fmt.Sprintf("%*s | %12s | %5.1f", width, prices[i], FormatVolume(r.Volume), r.Percent))
	}

	return strings.Join(lines, "\n") + "\n"
}

// FormatVolume rounds v half-to-even and groups thousands with ".".
// Volumes past the int64 range are grouped digit by digit.
func FormatVolume(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	n := exactDecimal(v).RoundBank(0).BigInt()
	if n.IsInt64() {
		return volumePrinter.Sprintf("%d", n.Int64())
	}
	return groupThousands(n.String())
}

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}
