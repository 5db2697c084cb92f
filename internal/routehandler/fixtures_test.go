package routehandler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nfrund/hashrouter/internal/alert"
	"github.com/nfrund/hashrouter/internal/browser"
	"github.com/nfrund/hashrouter/internal/hashcodec"
	"github.com/nfrund/hashrouter/internal/hashmgr"
	"github.com/nfrund/hashrouter/internal/observable"
	"github.com/nfrund/hashrouter/internal/routing"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() Config {
	return Config{
		LoadDebounce:    5 * time.Millisecond,
		LoadingDebounce: 20 * time.Millisecond,
		TitleDebounce:   5 * time.Millisecond,
		StateDebounce:   5 * time.Millisecond,
		MaxRedirects:    10,
	}
}

// view is a routable component that records what the handler does to it.
type view struct {
	key    string
	crumbs *observable.Property[[]Breadcrumb]
	title  *observable.Property[string]

	mu       sync.Mutex
	states   []hashcodec.State
	contexts []*ActivationContext
	saved    hashcodec.State
	changes  []StateChange
	disposed atomic.Int32
}

func newView(key, title string) *view {
	return &view{
		key:    key,
		crumbs: observable.NewProperty([]Breadcrumb{{Title: title, Path: key}}),
		title:  observable.NewProperty(title),
	}
}

func (v *view) RoutingKey() string                               { return v.key }
func (v *view) Breadcrumbs() observable.Observable[[]Breadcrumb] { return v.crumbs }
func (v *view) DocumentTitle() observable.Observable[string]     { return v.title }
func (v *view) DisplayName() string                              { return "View " + v.key }
func (v *view) Dispose()                                         { v.disposed.Add(1) }

func (v *view) Menus() Menus {
	return Menus{Navbar: []MenuItem{{Title: "Refresh", Command: "refresh:" + v.key}}}
}

func (v *view) GetRoutingState(change *StateChange) hashcodec.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.changes = append(v.changes, *change)
	return v.saved.Clone()
}

func (v *view) SetRoutingState(state hashcodec.State, ac *ActivationContext) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.states = append(v.states, state)
	v.contexts = append(v.contexts, ac)
}

func (v *view) States() []hashcodec.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]hashcodec.State(nil), v.states...)
}

func (v *view) LastContext() *ActivationContext {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.contexts) == 0 {
		return nil
	}
	return v.contexts[len(v.contexts)-1]
}

func (v *view) Save(state hashcodec.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.saved = state
}

// counter counts creator calls and hands out the views it created.
type counter struct {
	mu    sync.Mutex
	views []*view
	acs   []*ActivationContext
}

func (c *counter) creator(key, title string) Creator {
	return func(ac *ActivationContext) (any, error) {
		v := newView(key, title)
		c.mu.Lock()
		c.views = append(c.views, v)
		c.acs = append(c.acs, ac)
		c.mu.Unlock()
		return v, nil
	}
}

func (c *counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.views)
}

func (c *counter) View(i int) *view {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[i]
}

func (c *counter) Context(i int) *ActivationContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acs[i]
}

// alerts collects raised alerts.
type alerts struct {
	mu  sync.Mutex
	all []alert.Alert
}

func (a *alerts) Raise(_ context.Context, al alert.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.all = append(a.all, al)
}

func (a *alerts) All() []alert.Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]alert.Alert(nil), a.all...)
}

// titleLog records titles written to the sink.
type titleLog struct {
	mu     sync.Mutex
	titles []string
}

func (l *titleLog) SetTitle(title string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.titles = append(l.titles, title)
}

func (l *titleLog) Last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.titles) == 0 {
		return ""
	}
	return l.titles[len(l.titles)-1]
}

type harness struct {
	loop    *observable.Loop
	win     *browser.MemoryWindow
	manager *routing.Manager
	handler *Handler
	alerts  *alerts
}

func newHarness(t *testing.T, rm *Map, hash string, opts ...Option) *harness {
	t.Helper()

	loop := observable.NewLoop(quietLogger())
	win := browser.NewMemoryWindow(hash)
	hashes := hashmgr.New(win, quietLogger())
	manager := routing.NewManager(loop, hashes, routing.WithLogger(quietLogger()))

	al := &alerts{}
	opts = append([]Option{
		WithConfig(fastConfig()),
		WithLogger(quietLogger()),
		WithAlerter(al),
	}, opts...)
	handler, err := NewHandler(loop, manager, rm, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		handler.Close()
		manager.Close()
		hashes.Close()
		loop.Close()
	})

	return &harness{loop: loop, win: win, manager: manager, handler: handler, alerts: al}
}

func (h *harness) routed() *Loaded {
	return h.handler.RoutedComponent().Value()
}

func (h *harness) routedKey() string {
	if l := h.routed(); l != nil {
		return l.Key
	}
	return ""
}
