package example

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nfrund/hashrouter/internal/alert"
	"github.com/nfrund/hashrouter/internal/browser"
	"github.com/nfrund/hashrouter/internal/config"
	"github.com/nfrund/hashrouter/internal/hashmgr"
	"github.com/nfrund/hashrouter/internal/observable"
	"github.com/nfrund/hashrouter/internal/routehandler"
	"github.com/nfrund/hashrouter/internal/routing"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type ExampleSuite struct {
	suite.Suite

	loop    *observable.Loop
	win     *browser.MemoryWindow
	hashes  hashmgr.HashManager
	manager *routing.Manager
	handler *routehandler.Handler
}

func TestExampleSuite(t *testing.T) {
	suite.Run(t, new(ExampleSuite))
}

func (s *ExampleSuite) start(hash string, routes *config.Routes) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rm, err := Map(routes)
	s.Require().NoError(err)

	s.loop = observable.NewLoop(logger)
	s.win = browser.NewMemoryWindow(hash)
	s.hashes = hashmgr.New(s.win, logger)
	s.manager = routing.NewManager(s.loop, s.hashes, routing.WithLogger(logger))
	s.handler, err = routehandler.NewHandler(s.loop, s.manager, rm,
		routehandler.WithConfig(routehandler.Config{
			LoadDebounce:    5 * time.Millisecond,
			LoadingDebounce: 20 * time.Millisecond,
			TitleDebounce:   5 * time.Millisecond,
			StateDebounce:   5 * time.Millisecond,
			MaxRedirects:    10,
		}),
		routehandler.WithLogger(logger),
		routehandler.WithAlerter(alert.Func(func(context.Context, alert.Alert) {})),
		routehandler.WithTitleSink(s.win),
	)
	s.Require().NoError(err)
}

func (s *ExampleSuite) TearDownTest() {
	if s.handler != nil {
		s.handler.Close()
		s.manager.Close()
		s.hashes.Close()
		s.loop.Close()
	}
	s.handler = nil
}

func (s *ExampleSuite) routed() any {
	if l := s.handler.RoutedComponent().Value(); l != nil {
		return l.Value
	}
	return nil
}

func routedAs[T any](s *ExampleSuite) (T, bool) {
	v, ok := s.routed().(T)
	return v, ok
}

func (s *ExampleSuite) waitForHash(hash string) {
	s.Eventually(func() bool { return s.win.Hash() == hash }, waitFor, tick, "hash never became %s", hash)
}

func (s *ExampleSuite) TestItemDetailFromPattern() {
	s.start("#/items/42", nil)

	s.Eventually(func() bool {
		_, ok := routedAs[*ItemDetail](s)
		return ok
	}, waitFor, tick)
	detail, _ := routedAs[*ItemDetail](s)
	s.Equal(Item{ID: 42, Name: "Towel"}, detail.Item())

	loaded := s.handler.RoutedComponent().Value()
	s.Equal(ItemPattern, loaded.Key)
	s.Equal(routehandler.KindRoutable, loaded.Kind)

	s.Eventually(func() bool { return s.win.Title() == "Towel" }, waitFor, tick)
	crumbs := s.handler.RoutingBreadcrumbs().Value()
	s.Require().Len(crumbs, 3)
	s.Equal("/items/42", crumbs[2].Path)
}

func (s *ExampleSuite) TestItemDetailSwitchReusesComponent() {
	s.start("#/items/1", nil)
	s.Eventually(func() bool {
		_, ok := routedAs[*ItemDetail](s)
		return ok
	}, waitFor, tick)
	first, _ := routedAs[*ItemDetail](s)

	s.manager.NavTo("/items/7", nil)
	s.waitForHash("#/items/7")
	s.Eventually(func() bool {
		r := s.manager.CurrentRoute().Value()
		return r != nil && r.Path == "/items/7" && !s.handler.IsLoading().Value()
	}, waitFor, tick)

	// Pattern entries share one activation path, so the detail view stays.
	current, _ := routedAs[*ItemDetail](s)
	s.Same(first, current)
	s.Never(first.Disposed, 50*time.Millisecond, tick)
}

func (s *ExampleSuite) TestRedirects() {
	cases := []struct {
		from, to string
	}{
		{"#/products", "#/items"},
		{"#/home", "#/"},
		{"#/catalog/shoes", "#/items"},
	}
	for _, tc := range cases {
		s.Run(tc.from, func() {
			s.start(tc.from, nil)
			defer s.TearDownTest()
			s.waitForHash(tc.to)
		})
	}
}

func (s *ExampleSuite) TestUnknownPathShowsNotFound() {
	s.start("#/nowhere", nil)

	s.Eventually(func() bool {
		_, ok := routedAs[*NotFound](s)
		return ok
	}, waitFor, tick)
	nf, _ := routedAs[*NotFound](s)
	s.Equal("/nowhere", nf.Path)
	s.Equal(routehandler.KindStatic, s.handler.RoutedComponent().Value().Kind)
	s.Nil(s.handler.RoutingBreadcrumbs().Value())
}

func (s *ExampleSuite) TestItemListPagePersistsToHash() {
	s.start("#/items", nil)
	s.Eventually(func() bool {
		_, ok := routedAs[*ItemList](s)
		return ok
	}, waitFor, tick)
	list, _ := routedAs[*ItemList](s)
	s.Equal(1, list.Page())

	list.Set("page", "2")
	s.Require().NoError(s.handler.RequestStateUpdate(context.Background(), routehandler.StateChange{Source: "page"}))

	s.waitForHash("#/items?page=2")
	s.Eventually(func() bool { return s.win.Title() == "Items (page 2)" }, waitFor, tick)
	s.Equal(2, list.Page())

	current, _ := routedAs[*ItemList](s)
	s.Same(list, current)
	s.NotEmpty(s.handler.Menus().Navbar)
}

func (s *ExampleSuite) TestItemListOpensDetailRelative() {
	s.start("#/items", nil)
	s.Eventually(func() bool {
		_, ok := routedAs[*ItemList](s)
		return ok
	}, waitFor, tick)
	list, _ := routedAs[*ItemList](s)

	list.Open(7)
	s.waitForHash("#/items/7")
	s.Eventually(func() bool {
		d, ok := routedAs[*ItemDetail](s)
		return ok && d.Item().ID == 7
	}, waitFor, tick)
	s.True(list.Disposed())
}

func (s *ExampleSuite) TestBadItemKeepsPreviousPage() {
	s.start("#/about", nil)
	s.Eventually(func() bool {
		_, ok := routedAs[About](s)
		return ok
	}, waitFor, tick)
	s.Eventually(func() bool { return s.win.Title() == "About" }, waitFor, tick)

	s.manager.NavTo("/items/999", nil)
	s.waitForHash("#/items/999")
	s.Never(func() bool {
		_, ok := routedAs[About](s)
		return !ok
	}, 100*time.Millisecond, tick)
}

func (s *ExampleSuite) TestRoutesFileAddsRedirectsAndTitles() {
	s.start("#/index", &config.Routes{
		Redirects: map[string]string{"/index": "/about"},
		Titles:    map[string]string{"/about": "About this app"},
	})

	s.waitForHash("#/about")
	s.Eventually(func() bool { return s.win.Title() == "About this app" }, waitFor, tick)
}

func TestMapRejectsBadRoutesFile(t *testing.T) {
	_, err := Map(&config.Routes{Redirects: map[string]string{"/loop": "/loop"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routing map")
}

func TestMapKeys(t *testing.T) {
	rm, err := Map(nil)
	require.NoError(t, err)
	assert.Contains(t, rm.Keys(), ItemPattern)
	assert.Contains(t, rm.Keys(), routehandler.DefaultKey)
	assert.Contains(t, rm.Keys(), "/products")
}

func TestItemDetailRejectsUnknownID(t *testing.T) {
	_, err := NewItemDetail(&routehandler.ActivationContext{MatchGroups: []string{"/items/5", "5"}})
	assert.Error(t, err)

	_, err = NewItemDetail(&routehandler.ActivationContext{MatchGroups: []string{"/items/x", "x"}})
	assert.Error(t, err)
}
