package models

import "time"

// Bar represents one time-bucketed price sample as exported by the
// MetaTrader 5 terminal (one row of a history export).
//
// Fields:
//   - Time: bar open time.
//   - Open, High, Low, Close: prices of the bar.
//   - TickVolume: number of ticks in the bar (always available).
//   - RealVolume: traded quantity; zero on markets that do not report it.
//   - Spread: spread in points at bar close.
//
// The parquet tags match the column names used by the file provider.
type Bar struct {
	Time       time.Time `json:"time" parquet:"t,timestamp(millisecond)"`
	Open       float64   `json:"open" parquet:"o"`
	High       float64   `json:"high" parquet:"h"`
	Low        float64   `json:"low" parquet:"l"`
	Close      float64   `json:"close" parquet:"c"`
	TickVolume int64     `json:"tick_volume" parquet:"tv"`
	RealVolume int64     `json:"real_volume" parquet:"v,optional"`
	Spread     int64     `json:"spread" parquet:"s,optional"`
}

// Volume returns the volume used for VAP aggregation.
//
// Priority:
//  1. RealVolume, when strictly positive.
//  2. TickVolume, as a proxy for markets without traded volume.
func (b Bar) Volume() float64 {
	if b.RealVolume > 0 {
		return float64(b.RealVolume)
	}
	return float64(b.TickVolume)
}
