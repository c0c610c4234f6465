package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/b3vap/config"
	"github.com/guttosm/b3vap/internal/domain/dto"
	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/guttosm/b3vap/internal/service"
	"github.com/guttosm/b3vap/internal/vap"
)

// Handler provides HTTP handlers for the VAP endpoints.
//
// Responsibilities:
//   - Parse query parameters, falling back to the configured defaults
//   - Delegate to the VAP service
//   - Attach failures to the context for middleware.ErrorHandler
type Handler struct {
	svc      service.VAPService
	defaults config.VAPConfig
}

// NewHandler constructs a Handler. defaults fill every query parameter the
// caller leaves out.
func NewHandler(svc service.VAPService, defaults config.VAPConfig) *Handler {
	return &Handler{svc: svc, defaults: defaults}
}

// GetVAP godoc
// @Summary      VAP report
// @Description  Renders the Volume At Price table of the newest bars as plain text
// @Tags         vap
// @Produce      plain
// @Param        symbol     query     string  false  "Instrument symbol" example(WIN$N)
// @Param        period     query     string  false  "Timeframe (M1..D1)" example(M1)
// @Param        limit      query     int     false  "Number of bars" example(566)
// @Param        sort       query     string  false  "volume or price" example(volume)
// @Param        tick_size  query     number  false  "Price grid step" example(5)
// @Success      200        {string}  string           "VAP table"
// @Failure      400        {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404        {object}  dto.ErrorResponse  "No Data"
// @Failure      500        {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/vap [get]
func (h *Handler) GetVAP(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	report, err := h.svc.Report(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}

// GetLevels godoc
// @Summary      VAP levels
// @Description  Returns the VAP histogram of the newest bars as JSON, ordered like the text report
// @Tags         vap
// @Produce      json
// @Param        symbol     query     string  false  "Instrument symbol" example(WIN$N)
// @Param        period     query     string  false  "Timeframe (M1..D1)" example(M1)
// @Param        limit      query     int     false  "Number of bars" example(566)
// @Param        sort       query     string  false  "volume or price" example(volume)
// @Param        tick_size  query     number  false  "Price grid step" example(5)
// @Success      200        {object}  dto.VAPResponse    "Success"
// @Failure      400        {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404        {object}  dto.ErrorResponse  "No Data"
// @Failure      500        {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/vap/levels [get]
func (h *Handler) GetLevels(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.svc.Histogram(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rows := vap.Rows(res.Histogram, q.Sort)
	resp := dto.VAPResponse{
		Symbol:      q.Symbol,
		Period:      q.Timeframe.String(),
		Sort:        string(q.Sort),
		TickSize:    q.TickSize,
		Bars:        res.Bars,
		TotalVolume: res.Histogram.Total(),
		Levels:      make([]dto.VAPLevel, len(rows)),
	}
	for i, r := range rows {
		resp.Levels[i] = dto.VAPLevel{Price: r.Price, Volume: r.Volume, Percent: r.Percent}
	}

	c.JSON(http.StatusOK, resp)
}

// parseQuery merges the request parameters over the handler defaults.
func (h *Handler) parseQuery(c *gin.Context) (service.Query, error) {
	symbol := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("symbol", h.defaults.Symbol)))

	tf, err := models.ParseTimeframe(c.DefaultQuery("period", h.defaults.Period))
	if err != nil {
		return service.Query{}, err
	}

	sortMode, err := models.ParseSortMode(c.DefaultQuery("sort", h.defaults.Sort))
	if err != nil {
		return service.Query{}, err
	}

	limit := h.defaults.Limit
	if s := c.Query("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return service.Query{}, fmt.Errorf("%w: limit %q is not an integer", models.ErrInvalidConfiguration, s)
		}
	}

	tick := h.defaults.TickSize
	if s := c.Query("tick_size"); s != "" {
		if tick, err = strconv.ParseFloat(s, 64); err != nil {
			return service.Query{}, fmt.Errorf("%w: tick_size %q is not a number", models.ErrInvalidConfiguration, s)
		}
	}

	return service.Query{Symbol: symbol, Timeframe: tf, Limit: limit, Sort: sortMode, TickSize: tick}, nil
}
