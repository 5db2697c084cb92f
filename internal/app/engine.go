package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/do/v2"

	"github.com/nfrund/hashrouter/internal/alert"
	"github.com/nfrund/hashrouter/internal/config"
	"github.com/nfrund/hashrouter/internal/hashcodec"
	"github.com/nfrund/hashrouter/internal/hashmgr"
	"github.com/nfrund/hashrouter/internal/metrics"
	"github.com/nfrund/hashrouter/internal/observable"
	"github.com/nfrund/hashrouter/internal/pubsub"
	"github.com/nfrund/hashrouter/internal/routehandler"
	"github.com/nfrund/hashrouter/internal/routing"
)

// Window is a browser window an engine can route: location, history and
// document title.
type Window interface {
	hashmgr.Window
	routehandler.TitleSink
}

// RouteChange is published on every route the engine accepts.
type RouteChange struct {
	Path  string            `json:"path"`
	Hash  string            `json:"hash"`
	State map[string]string `json:"state,omitempty"`
}

// RouteChanged carries RouteChange events, addressed to the engine's client.
var RouteChanged = pubsub.NewEvent[RouteChange]("routing.route.changed", "The current route of a window changed")

// Engine routes one window: its loop, hash manager, route manager and route
// handler.
type Engine struct {
	clientID string
	loop     *observable.Loop
	hashes   hashmgr.HashManager
	manager  *routing.Manager
	handler  *routehandler.Handler
	bus      pubsub.Publisher
	logger   *slog.Logger

	routeSub  observable.Subscription
	closeOnce sync.Once
}

// EngineOption configures NewEngine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	clientID string
}

// WithClientID sets the client ID messages of this engine are addressed to.
// A random ID is used otherwise.
func WithClientID(id string) EngineOption {
	return func(o *engineOptions) { o.clientID = id }
}

// NewEngine builds an engine for win from the services registered in i.
func NewEngine(i do.Injector, win Window, opts ...EngineOption) (*Engine, error) {
	o := engineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clientID == "" {
		o.clientID = uuid.NewString()
	}

	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	routes, err := do.Invoke[*routehandler.Map](i)
	if err != nil {
		return nil, fmt.Errorf("build routing map: %w", err)
	}
	bus, err := do.Invoke[*pubsub.WatermillBridge](i)
	if err != nil {
		return nil, err
	}
	m, err := do.Invoke[*metrics.Metrics](i)
	if err != nil {
		return nil, err
	}
	tracing, err := do.Invoke[*Tracing](i)
	if err != nil {
		return nil, err
	}
	logger := do.MustInvoke[*slog.Logger](i).With("client_id", o.clientID)

	alerter := alert.NewBusAlerter(bus, o.clientID, m, logger)
	loop := observable.NewLoop(logger)
	hashes := hashmgr.New(win, logger)
	manager := routing.NewManager(loop, hashes,
		routing.WithLogger(logger),
		routing.WithAlerter(alerter),
		routing.WithMetrics(m),
		routing.WithMaxRedirects(cfg.Router.MaxRedirects),
	)

	hopts := []routehandler.Option{
		routehandler.WithConfig(cfg.Router.Handler()),
		routehandler.WithLogger(logger),
		routehandler.WithAlerter(alerter),
		routehandler.WithMetrics(m),
		routehandler.WithTitleSink(win),
		routehandler.WithBus(bus, bus, o.clientID),
	}
	if tracing.Enabled {
		hopts = append(hopts, routehandler.WithTracer(tracing.Tracer))
	}
	handler, err := routehandler.NewHandler(loop, manager, routes, hopts...)
	if err != nil {
		manager.Close()
		hashes.Close()
		loop.Close()
		return nil, err
	}

	e := &Engine{
		clientID: o.clientID,
		loop:     loop,
		hashes:   hashes,
		manager:  manager,
		handler:  handler,
		bus:      bus,
		logger:   logger.With("service", "engine"),
	}
	e.routeSub = manager.CurrentRoute().Subscribe(e.publishRoute)
	e.logger.Debug("Engine started", "hash", hashes.CurrentHash())
	return e, nil
}

func (e *Engine) publishRoute(route *routing.Route) {
	if route == nil {
		return
	}
	change := RouteChange{Path: route.Path, Hash: route.Hash(), State: route.State.Clone()}
	if err := pubsub.PublishTo(context.Background(), e.bus, RouteChanged, e.clientID, change); err != nil {
		e.logger.Warn("Failed to publish route change", "path", route.Path, "error", err)
	}
}

// ClientID identifies the engine on the bus.
func (e *Engine) ClientID() string { return e.clientID }

// Manager returns the route manager.
func (e *Engine) Manager() *routing.Manager { return e.manager }

// Handler returns the route handler.
func (e *Engine) Handler() *routehandler.Handler { return e.handler }

// Route returns the current route, nil before the first one.
func (e *Engine) Route() *routing.Route { return e.manager.CurrentRoute().Value() }

// Component returns the routed component, nil before the first load.
func (e *Engine) Component() *routehandler.Loaded { return e.handler.RoutedComponent().Value() }

// Hash returns the window hash as the hash manager sees it.
func (e *Engine) Hash() string { return e.hashes.CurrentHash() }

// NavTo navigates the window.
func (e *Engine) NavTo(path string, state hashcodec.State, opts ...routing.NavOption) {
	e.manager.NavTo(path, state, opts...)
}

// Edit runs fn with the routed component on the engine loop and then asks
// the component to persist its state into the hash. It must not be called
// from a loop task.
func (e *Engine) Edit(ctx context.Context, source string, fn func(component any)) error {
	done := make(chan struct{})
	if !e.loop.Post(func() {
		defer close(done)
		if l := e.handler.RoutedComponent().Value(); l != nil {
			fn(l.Value)
		}
	}) {
		return errors.New("engine closed")
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return e.handler.RequestStateUpdate(ctx, routehandler.StateChange{Source: source})
}

type snapshot struct {
	hash    string
	loaded  *routehandler.Loaded
	title   string
	loading bool
}

func (e *Engine) snapshot() snapshot {
	return snapshot{
		hash:    e.hashes.CurrentHash(),
		loaded:  e.handler.RoutedComponent().Value(),
		title:   e.handler.Title().Value(),
		loading: e.handler.IsLoading().Value(),
	}
}

// Settle waits until the hash, the routed component and the title stayed
// unchanged for quiet and nothing is loading.
func (e *Engine) Settle(ctx context.Context, quiet time.Duration) error {
	if quiet <= 0 {
		quiet = time.Millisecond
	}
	ticker := time.NewTicker(max(quiet/10, time.Millisecond))
	defer ticker.Stop()

	last, since := e.snapshot(), time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.loop.Done():
			return errors.New("engine closed")
		case now := <-ticker.C:
			s := e.snapshot()
			if s != last {
				last, since = s, now
				continue
			}
			if !s.loading && now.Sub(since) >= quiet {
				return nil
			}
		}
	}
}

// Close stops the engine and disposes the routed component.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.routeSub.Unsubscribe()
		e.handler.Close()
		e.manager.Close()
		e.hashes.Close()
		e.loop.Close()
		e.logger.Debug("Engine stopped")
	})
}
