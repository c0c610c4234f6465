package models

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe identifies the bar period requested from a provider (e.g. "M5").
type Timeframe string

const (
	M1  Timeframe = "M1"
	M2  Timeframe = "M2"
	M3  Timeframe = "M3"
	M4  Timeframe = "M4"
	M5  Timeframe = "M5"
	M6  Timeframe = "M6"
	M10 Timeframe = "M10"
	M12 Timeframe = "M12"
	M15 Timeframe = "M15"
	M20 Timeframe = "M20"
	M30 Timeframe = "M30"
	H1  Timeframe = "H1"
	H2  Timeframe = "H2"
	H3  Timeframe = "H3"
	H4  Timeframe = "H4"
	D1  Timeframe = "D1"
)

// timeframes lists the accepted keys in display order.
var timeframes = []Timeframe{M1, M2, M3, M4, M5, M6, M10, M12, M15, M20, M30, H1, H2, H3, H4, D1}

var durations = map[Timeframe]time.Duration{
	M1:  time.Minute,
	M2:  2 * time.Minute,
	M3:  3 * time.Minute,
	M4:  4 * time.Minute,
	M5:  5 * time.Minute,
	M6:  6 * time.Minute,
	M10: 10 * time.Minute,
	M12: 12 * time.Minute,
	M15: 15 * time.Minute,
	M20: 20 * time.Minute,
	M30: 30 * time.Minute,
	H1:  time.Hour,
	H2:  2 * time.Hour,
	H3:  3 * time.Hour,
	H4:  4 * time.Hour,
	D1:  24 * time.Hour,
}

// ParseTimeframe normalizes s (case-insensitive) into a known Timeframe.
// Unknown keys are rejected with ErrInvalidConfiguration.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := durations[tf]; !ok {
		return "", fmt.Errorf("%w: timeframe %q, use one of: %s", ErrInvalidConfiguration, s, strings.Join(TimeframeKeys(), ", "))
	}
	return tf, nil
}

// TimeframeKeys returns the accepted timeframe keys.
func TimeframeKeys() []string {
	keys := make([]string, len(timeframes))
	for i, tf := range timeframes {
		keys[i] = string(tf)
	}
	return keys
}

// Duration returns the length of one bar, or zero for an unknown timeframe.
func (tf Timeframe) Duration() time.Duration {
	return durations[tf]
}

func (tf Timeframe) String() string { return string(tf) }
