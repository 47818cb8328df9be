package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes configures all API routes and middleware.
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/state", h.State)
	v1.GET("/quote", h.Quote)
	v1.GET("/bounds", h.Bounds)
	v1.POST("/pools/refresh", h.PoolsRefresh)
	v1.POST("/trade", h.Trade)
	v1.GET("/trades/recent", h.TradesRecent)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
