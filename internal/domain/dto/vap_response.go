package dto

// VAPLevel is one row of a VAP histogram.
type VAPLevel struct {
	Price   float64 `json:"price" example:"125000"`
	Volume  float64 `json:"volume" example:"15234.5"`
	Percent float64 `json:"percent" example:"3.2"`
}

// VAPResponse represents the JSON structure returned by the
// GET /api/v1/vap/levels endpoint.
//
// Levels follow the requested sort order, with the same percentages printed
// by the text report.
type VAPResponse struct {
	Symbol      string     `json:"symbol" example:"WIN$N"`
	Period      string     `json:"period" example:"M1"`
	Sort        string     `json:"sort" example:"volume"`
	TickSize    float64    `json:"tick_size" example:"5"`
	Bars        int        `json:"bars" example:"566"`
	TotalVolume float64    `json:"total_volume" example:"4800000"`
	Levels      []VAPLevel `json:"levels"`
}
