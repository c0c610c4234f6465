package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/b3vap/config"
	"github.com/guttosm/b3vap/internal/api"
	"github.com/guttosm/b3vap/internal/service"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Builds the bar provider selected in cfg (files or PostgreSQL).
//   - Creates the VAP service with the configured rounding digits.
//   - Creates the HTTP handler with cfg.VAP as request defaults.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness checks.
//   - Provides a cleanup function to close resources (e.g., DB connection).
func InitializeApp(cfg config.Config) (*gin.Engine, func(), error) {
	provider, err := NewBarProvider(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize bar provider: %w", err)
	}

	svc := service.NewVAPService(provider, cfg.VAP.Digits)

	handler := api.NewHandler(svc, cfg.VAP)

	router := api.NewRouter(handler)

	api.NewHealthHandler(provider.Ping).Register(router)

	return router, provider.Cleanup, nil
}
