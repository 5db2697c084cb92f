package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hashrouter/internal/browser"
	"github.com/nfrund/hashrouter/internal/config"
	"github.com/nfrund/hashrouter/internal/example"
	"github.com/nfrund/hashrouter/internal/pubsub"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Router.LoadDebounce = 5 * time.Millisecond
	cfg.Router.LoadingDebounce = 20 * time.Millisecond
	cfg.Router.TitleDebounce = 5 * time.Millisecond
	cfg.Router.StateDebounce = 5 * time.Millisecond
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config, fs afero.Fs) *do.RootScope {
	t.Helper()
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	i := NewContainer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), fs)
	t.Cleanup(func() { i.Shutdown() })
	return i
}

func newTestEngine(t *testing.T, i do.Injector, hash string) (*Engine, *browser.MemoryWindow) {
	t.Helper()
	win := browser.NewMemoryWindow(hash)
	e, err := NewEngine(i, win)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, win
}

func settle(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, e.Settle(ctx, 40*time.Millisecond))
}

func TestEngineRoutesWindow(t *testing.T) {
	i := newTestContainer(t, testConfig(), nil)
	e, win := newTestEngine(t, i, "#/items/42")
	settle(t, e)

	require.NotNil(t, e.Component())
	detail, ok := e.Component().Value.(*example.ItemDetail)
	require.True(t, ok)
	assert.Equal(t, "Towel", detail.Item().Name)
	assert.Equal(t, "/items/42", e.Route().Path)
	assert.Equal(t, "Towel", win.Title())
	assert.NotEmpty(t, e.ClientID())
}

func TestEnginePublishesRouteChanges(t *testing.T) {
	i := newTestContainer(t, testConfig(), nil)
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan RouteChange, 16)
	clients := make(chan string, 16)
	require.NoError(t, pubsub.Subscribe(ctx, bus, RouteChanged, func(_ context.Context, clientID string, c RouteChange) error {
		clients <- clientID
		changes <- c
		return nil
	}))

	win := browser.NewMemoryWindow("#/")
	e, err := NewEngine(i, win, WithClientID("tab-1"))
	require.NoError(t, err)
	defer e.Close()
	settle(t, e)

	e.NavTo("/about", nil)
	deadline := time.After(waitFor)
	for {
		select {
		case c := <-changes:
			assert.Equal(t, "tab-1", <-clients)
			if c.Path == "/about" {
				assert.Equal(t, "#/about", c.Hash)
				return
			}
		case <-deadline:
			t.Fatal("no route change for /about")
		}
	}
}

func TestEngineEditPersistsState(t *testing.T) {
	i := newTestContainer(t, testConfig(), nil)
	e, win := newTestEngine(t, i, "#/items")
	settle(t, e)

	err := e.Edit(context.Background(), "page", func(c any) {
		c.(example.Editable).Set("page", "3")
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return win.Hash() == "#/items?page=3" }, waitFor, tick)
	assert.Eventually(t, func() bool { return win.Title() == "Items (page 3)" }, waitFor, tick)
}

func TestEngineRecordsMetrics(t *testing.T) {
	i := newTestContainer(t, testConfig(), nil)
	e, _ := newTestEngine(t, i, "#/products")
	settle(t, e)

	reg := do.MustInvoke[*prometheus.Registry](i)
	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["hashrouter_router_route_changes_total"])
	assert.True(t, names["hashrouter_router_redirects_total"])
	loads, err := testutil.GatherAndCount(reg, "hashrouter_router_component_loads_total")
	require.NoError(t, err)
	assert.Positive(t, loads)
}

func TestEngineUsesRoutesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/routes.json",
		[]byte(`{"redirects": {"/start": "/about"}, "titles": {"/about": "About us"}}`), 0o644))

	cfg := testConfig()
	cfg.RoutesFile = "/etc/routes.json"
	i := newTestContainer(t, cfg, fs)
	e, win := newTestEngine(t, i, "#/start")
	settle(t, e)

	assert.Equal(t, "#/about", win.Hash())
	assert.Equal(t, "About us", win.Title())
}

func TestEngineFailsOnBadRoutesFile(t *testing.T) {
	cfg := testConfig()
	cfg.RoutesFile = "/missing.json"
	i := newTestContainer(t, cfg, nil)

	_, err := NewEngine(i, browser.NewMemoryWindow("#/"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routes file")
}

func TestEngineCloseIsIdempotent(t *testing.T) {
	i := newTestContainer(t, testConfig(), nil)
	e, _ := newTestEngine(t, i, "#/items")
	settle(t, e)

	list := e.Component().Value.(*example.ItemList)
	e.Close()
	e.Close()
	assert.True(t, list.Disposed())
}

func TestContainerShutdown(t *testing.T) {
	i := NewContainer(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), afero.NewMemMapFs())
	do.MustInvoke[*pubsub.WatermillBridge](i)

	report := i.Shutdown()
	assert.True(t, report.Succeed, report.Error())
}
