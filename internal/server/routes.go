package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nfrund/hashrouter/internal/middleware"
)

// RegisterRoutes sets up all the server routes.
func (s *Server) RegisterRoutes() {
	api := s.E.Group("/api", middleware.RateLimiter(50, 100))
	api.GET("/hash/decode", s.decodeHash)
	api.POST("/hash/encode", s.encodeHash)
	api.GET("/routes", s.listRoutes)

	s.E.GET("/ws", echo.WrapHandler(s.bridge))
	s.E.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})))

	s.E.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"clients": s.bridge.Clients(),
		})
	})
}
