package models

import (
	"fmt"
	"strings"
)

// SortMode selects the row order of a VAP report.
type SortMode string

const (
	SortByVolume SortMode = "volume" // descending accumulated volume
	SortByPrice  SortMode = "price"  // ascending price
)

// ParseSortMode accepts "volume" or "price" in any case.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SortByVolume, SortByPrice:
		return m, nil
	default:
		return "", fmt.Errorf("%w: sort %q, use volume or price", ErrInvalidConfiguration, s)
	}
}
