package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hashrouter/internal/app"
	"github.com/nfrund/hashrouter/internal/config"
	ws "github.com/nfrund/hashrouter/internal/websocket"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Router.LoadDebounce = 5 * time.Millisecond
	cfg.Router.LoadingDebounce = 20 * time.Millisecond
	cfg.Router.TitleDebounce = 5 * time.Millisecond
	cfg.Router.StateDebounce = 5 * time.Millisecond

	i := app.NewContainer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), afero.NewMemMapFs())
	t.Cleanup(func() { i.Shutdown() })

	s, err := New(i)
	require.NoError(t, err)
	return s
}

func request(t *testing.T, s *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, req)
	return rec
}

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	e := echo.New()

	var logBuffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{AddSource: true}))
	originalLogger := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(originalLogger)

	setupErrorHandling(e)
	e.GET("/test-unhandled-error", func(c echo.Context) error {
		return errors.New("a deliberate unhandled error occurred")
	})

	req := httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)")
	assert.Contains(t, logOutput, "error=\"a deliberate unhandled error occurred\"")
	assert.Contains(t, logOutput, "stack_trace=")
	assert.Contains(t, logOutput, "runtime/debug/stack.go")
	assert.Contains(t, logOutput, "internal/server/server_test.go")
}

func TestHTTPErrorHandler_HTTPError(t *testing.T) {
	e := echo.New()
	setupErrorHandling(e)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Code)
}

func TestDecodeHash(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		hash      string
		canonical string
		path      string
		key       string
		redirect  string
		state     map[string]string
	}{
		{name: "empty", hash: "", canonical: "#/", path: "/", key: "/"},
		{name: "pattern", hash: "#/items/42", canonical: "#/items/42", path: "/items/42", key: `^/items/(\d+)$`},
		{name: "redirect", hash: "#/products", canonical: "#/products", path: "/products", key: "/products", redirect: "/items"},
		{name: "fallback", hash: "#/nope", canonical: "#/nope", path: "/nope", key: "*"},
		{
			name: "state", hash: "#//items/?page=2&q=a%20b", canonical: "#/items?page=2&q=a b",
			path: "/items", key: "/items", state: map[string]string{"page": "2", "q": "a b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(t, s, http.MethodGet, "/api/hash/decode?hash="+url.QueryEscape(tt.hash), nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp RouteResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.canonical, resp.Canonical)
			assert.Equal(t, tt.path, resp.Path)
			assert.Equal(t, tt.key, resp.Key)
			assert.Equal(t, tt.redirect, resp.Redirect)
			if tt.state != nil {
				assert.Equal(t, tt.state, resp.State)
			}
		})
	}
}

func TestEncodeHash(t *testing.T) {
	s := newTestServer(t)

	rec := request(t, s, http.MethodPost, "/api/hash/encode",
		strings.NewReader(`{"path": "items//", "state": {"q": "a b", "page": "2"}}`))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp EncodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "#/items?page=2&q=a b", resp.Hash)

	rec = request(t, s, http.MethodPost, "/api/hash/encode",
		strings.NewReader(`{"path": "/items", "state": {"q": "a b"}, "uri_encode": true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "#/items?q=a+b", resp.Hash)
}

func TestEncodeHashValidation(t *testing.T) {
	s := newTestServer(t)

	rec := request(t, s, http.MethodPost, "/api/hash/encode", strings.NewReader(`{"state": {"a": "1"}}`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid", resp.Code)
	assert.Contains(t, resp.Fields, "EncodeRequest.Path (required)")

	rec = request(t, s, http.MethodPost, "/api/hash/encode", strings.NewReader(`{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := request(t, s, http.MethodGet, "/api/routes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Keys []string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Keys, "/items")
	assert.Equal(t, "*", resp.Keys[len(resp.Keys)-1])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := request(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = request(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hashrouter_router_redirects_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestWebsocketEndpoint(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.E)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	hello, err := json.Marshal(ws.Message{Type: ws.TypeHello, Hash: "#/items/7", History: true})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, hello))

	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == ws.TypeTitle && msg.Title == "Standing desk" {
			break
		}
	}

	assert.Eventually(t, func() bool { return s.Bridge().Clients() == 1 }, 3*time.Second, 5*time.Millisecond)
	rec := request(t, s, http.MethodGet, "/metrics", nil)
	assert.Contains(t, rec.Body.String(), "hashrouter_router_remote_clients 1")

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
}
