package models

import "errors"

// Error kinds shared by every layer. Callers match them with errors.Is;
// the concrete errors wrap them with context (symbol, offending key, ...).
var (
	// ErrProviderUnavailable means the bar source could not be opened or
	// returned no bars for the requested symbol/timeframe.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidConfiguration means a parameter was rejected before any
	// aggregation started (tick size, timeframe, sort mode, ...).
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
