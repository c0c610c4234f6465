package ingestion

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guttosm/b3vap/internal/domain/models"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column keys after header normalization ("<TICKVOL>" -> "TICKVOL").
const (
	colDate    = "DATE"
	colTime    = "TIME"
	colOpen    = "OPEN"
	colHigh    = "HIGH"
	colLow     = "LOW"
	colClose   = "CLOSE"
	colTickVol = "TICKVOL"
	colVol     = "VOL"
	colSpread  = "SPREAD"
)

// headerAliases maps the header spellings found in MetaTrader 5 exports and
// in hand-made files to the canonical column keys.
var headerAliases = map[string]string{
	"DATE":        colDate,
	"TIME":        colTime,
	"OPEN":        colOpen,
	"HIGH":        colHigh,
	"LOW":         colLow,
	"CLOSE":       colClose,
	"TICKVOL":     colTickVol,
	"TICK_VOLUME": colTickVol,
	"VOL":         colVol,
	"VOLUME":      colVol,
	"REAL_VOLUME": colVol,
	"SPREAD":      colSpread,
}

// requiredColumns must be present in every file; TIME is absent on D1 exports.
var requiredColumns = []string{colDate, colOpen, colHigh, colLow, colClose, colTickVol}

var dateLayouts = []string{"2006.01.02", "2006-01-02"}

var timeLayouts = []string{"15:04:05", "15:04"}

// parseCSVFile opens and parses one MetaTrader 5 history export.
func parseCSVFile(ctx context.Context, path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parseCSV(ctx, f)
}

// parseCSV reads a MetaTrader 5 "Bars" export.
//
// It fails on:
//   - a header missing any of DATE, OPEN, HIGH, LOW, CLOSE, TICKVOL
//   - malformed dates or prices
//   - unrecoverable I/O errors
//
// It tolerates:
//   - tab, semicolon or comma delimiters (taken from the header line)
//   - "<COL>" or bare "COL" header names in any case and order
//   - empty volume/spread cells (they become zero)
//   - UTF-16 files (the terminal's default export encoding) and UTF-8 with or without BOM
//   - blank trailing lines
func parseCSV(ctx context.Context, r io.Reader) ([]models.Bar, error) {
	br := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	headerLine, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if strings.TrimSpace(headerLine) == "" {
		return nil, fmt.Errorf("read header: empty file")
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	cr.Comma = detectDelimiter(headerLine)
	cr.FieldsPerRecord = -1 // checked explicitly per row

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var bars []models.Bar
	lineNumber := 1 // header already read

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read line after %d: %w", lineNumber, err)
		}
		lineNumber++

		if len(rec) < len(header) {
			return nil, fmt.Errorf("invalid column count on line %d: expected %d got %d", lineNumber, len(header), len(rec))
		}

		b, err := recordToBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		bars = append(bars, b)
	}

	return bars, nil
}

func detectDelimiter(header string) rune {
	switch {
	case strings.Contains(header, "\t"):
		return '\t'
	case strings.Contains(header, ";"):
		return ';'
	default:
		return ','
	}
}

// mapHeader returns the index of every known column.
func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToUpper(strings.Trim(strings.TrimSpace(h), "<>"))
		if key, ok := headerAliases[name]; ok {
			cols[key] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("invalid header: missing columns %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// recordToBar converts a single record into a models.Bar. It is STRICT about
// dates and prices but TOLERATES empty volume and spread cells.
func recordToBar(rec []string, cols map[string]int) (models.Bar, error) {
	var b models.Bar

	ts, err := parseTimestamp(rec[cols[colDate]], cell(rec, cols, colTime))
	if err != nil {
		return b, err
	}
	b.Time = ts

	prices := []struct {
		col string
		dst *float64
	}{
		{colOpen, &b.Open},
		{colHigh, &b.High},
		{colLow, &b.Low},
		{colClose, &b.Close},
	}
	for _, p := range prices {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[p.col]]), 64)
		if err != nil {
			return b, fmt.Errorf("invalid %s: %v", p.col, err)
		}
		*p.dst = v
	}

	if b.TickVolume, err = parseVolume(cell(rec, cols, colTickVol)); err != nil {
		return b, fmt.Errorf("invalid %s: %v", colTickVol, err)
	}
	if b.RealVolume, err = parseVolume(cell(rec, cols, colVol)); err != nil {
		return b, fmt.Errorf("invalid %s: %v", colVol, err)
	}
	if b.Spread, err = parseVolume(cell(rec, cols, colSpread)); err != nil {
		return b, fmt.Errorf("invalid %s: %v", colSpread, err)
	}

	return b, nil
}

// cell returns the trimmed value of an optional column, or "".
func cell(rec []string, cols map[string]int, col string) string {
	i, ok := cols[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseTimestamp(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	var d time.Time
	var err error
	for _, layout := range dateLayouts {
		if d, err = time.ParseInLocation(layout, date, time.UTC); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q", colDate, date)
	}
	if clock == "" {
		return d, nil
	}

	for _, layout := range timeLayouts {
		if c, err := time.Parse(layout, clock); err == nil {
			return d.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute + time.Duration(c.Second())*time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", colTime, clock)
}

// parseVolume accepts integers and integral floats ("120", "120.0"); empty is zero.
func parseVolume(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
