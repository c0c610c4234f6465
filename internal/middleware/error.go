package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/b3vap/internal/domain/dto"
	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/guttosm/b3vap/internal/logger"
)

// ErrorHandler turns errors attached with c.Error into a JSON response once
// the handler chain has run. Nothing is written when the handler already
// produced a body.
//
// Status mapping:
//   - models.ErrInvalidConfiguration: 400 Bad Request
//   - models.ErrProviderUnavailable: 404 Not Found
//   - context.DeadlineExceeded: 504 Gateway Timeout
//   - anything else: 500 Internal Server Error
var ErrorHandler gin.HandlerFunc = func(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors.Last().Err
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(msg, err))
}

// AbortWithError stops the chain and writes a standardized error body.
func AbortWithError(c *gin.Context, status int, msg string, err error) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(msg, err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidConfiguration):
		return http.StatusBadRequest, "invalid configuration"
	case errors.Is(err, models.ErrProviderUnavailable):
		return http.StatusNotFound, "no data available"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
