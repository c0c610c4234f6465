package vap

// Level is one price level of a histogram with its accumulated volume.
type Level struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// Histogram maps price levels to accumulated volume.
//
// Levels keep the order in which they were first touched, so iteration is
// deterministic and sorts that compare equal stay stable across calls.
// A Histogram is built by Aggregate and must be treated as read-only after.
type Histogram struct {
	index  map[float64]int
	levels []Level
}

func newHistogram() *Histogram {
	return &Histogram{index: make(map[float64]int)}
}

func (h *Histogram) add(price, volume float64) {
	if i, ok := h.index[price]; ok {
		h.levels[i].Volume += volume
		return
	}
	h.index[price] = len(h.levels)
	h.levels = append(h.levels, Level{Price: price, Volume: volume})
}

// Len returns the number of distinct price levels.
func (h *Histogram) Len() int {
	if h == nil {
		return 0
	}
	return len(h.levels)
}

// Levels returns a copy of the levels in insertion order.
func (h *Histogram) Levels() []Level {
	if h == nil {
		return nil
	}
	out := make([]Level, len(h.levels))
	copy(out, h.levels)
	return out
}

// Volume returns the volume accumulated at price.
func (h *Histogram) Volume(price float64) (float64, bool) {
	if h == nil {
		return 0, false
	}
	i, ok := h.index[price]
	if !ok {
		return 0, false
	}
	return h.levels[i].Volume, true
}

// Total returns the sum of all level volumes.
func (h *Histogram) Total() float64 {
	var total float64
	if h == nil {
		return total
	}
	for _, l := range h.levels {
		total += l.Volume
	}
	return total
}
