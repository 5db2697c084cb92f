// Package server is the HTTP surface of the router: the websocket endpoint
// browser tabs connect to, Prometheus metrics and a small hash API.
package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"

	"github.com/nfrund/hashrouter/internal/config"
	"github.com/nfrund/hashrouter/internal/middleware"
	"github.com/nfrund/hashrouter/internal/routehandler"
	"github.com/nfrund/hashrouter/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	bridge   *websocket.Bridge
	registry *prometheus.Registry
	routes   *routehandler.Map
	logger   *slog.Logger
}

// New creates a server over the services registered in i.
func New(i do.Injector) (*Server, error) {
	routes, err := do.Invoke[*routehandler.Map](i)
	if err != nil {
		return nil, err
	}
	logger := do.MustInvoke[*slog.Logger](i).With("service", "http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = requestValidator{}
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.Recover())
	setupErrorHandling(e)

	s := &Server{
		E:        e,
		bridge:   websocket.NewBridge(i),
		registry: do.MustInvoke[*prometheus.Registry](i),
		routes:   routes,
		logger:   logger,
	}
	s.RegisterRoutes()
	return s, nil
}

// Bridge returns the websocket bridge.
func (s *Server) Bridge() *websocket.Bridge {
	return s.bridge
}

// requestValidator validates bound request bodies.
type requestValidator struct{}

func (requestValidator) Validate(i any) error {
	return config.Validate(i)
}

// setupErrorHandling logs unhandled errors with a stack trace and answers
// with a JSON error body.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		resp := ErrorResponse{Code: "internal", Message: http.StatusText(code)}
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			resp = ErrorResponse{Code: codeName(code), Message: http.StatusText(code)}
			if msg, ok := he.Message.(string); ok {
				resp.Message = msg
			}
		} else {
			slog.Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, resp)
		}
		if werr != nil {
			slog.Error("Failed to write error response", "error", werr)
		}
	}
}

func codeName(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusUnprocessableEntity:
		return "invalid"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "error"
	}
}
