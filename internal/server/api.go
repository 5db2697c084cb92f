package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/hashrouter/internal/config"
	"github.com/nfrund/hashrouter/internal/hashcodec"
	"github.com/nfrund/hashrouter/internal/middleware"
	"github.com/nfrund/hashrouter/internal/routing"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// RouteResponse describes a decoded hash.
type RouteResponse struct {
	Hash      string            `json:"hash"`
	Canonical string            `json:"canonical"`
	Path      string            `json:"path"`
	Params    string            `json:"params,omitempty"`
	State     map[string]string `json:"state,omitempty"`
	// Key is the routing map entry the path resolves to.
	Key      string `json:"key,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// EncodeRequest is the body of POST /api/hash/encode.
type EncodeRequest struct {
	Path      string            `json:"path" validate:"required"`
	State     map[string]string `json:"state"`
	URIEncode bool              `json:"uri_encode"`
}

// EncodeResponse is the answer to EncodeRequest.
type EncodeResponse struct {
	Hash string `json:"hash"`
}

func (s *Server) decodeHash(c echo.Context) error {
	hash := c.QueryParam("hash")
	route := routing.Decode(hash)

	resp := RouteResponse{
		Hash:      hash,
		Canonical: route.Hash(),
		Path:      route.Path,
		Params:    route.Params,
		State:     route.State,
	}
	if act, err := s.routes.Resolve(route); err == nil {
		resp.Key = act.Key
		if act.IsRedirect() {
			resp.Redirect = act.Path
		}
	} else {
		middleware.FromContext(c.Request().Context()).Warn("Resolving decoded hash failed", "hash", hash, "error", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) encodeHash(c echo.Context) error {
	var req EncodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Code:    "invalid",
				Message: "request validation failed",
				Fields:  verr.Fields,
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, EncodeResponse{
		Hash: hashcodec.Encode(req.Path, req.State, req.URIEncode),
	})
}

func (s *Server) listRoutes(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"keys": s.routes.Keys()})
}
