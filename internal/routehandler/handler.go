package routehandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/hashrouter/internal/alert"
	"github.com/nfrund/hashrouter/internal/hashcodec"
	"github.com/nfrund/hashrouter/internal/metrics"
	"github.com/nfrund/hashrouter/internal/observable"
	"github.com/nfrund/hashrouter/internal/pubsub"
	"github.com/nfrund/hashrouter/internal/routing"
)

// Router is the route manager as seen by the handler.
type Router interface {
	routing.Navigator
	CurrentRoute() observable.Observable[*routing.Route]
}

// Handler keeps the routed component in step with the current route.
type Handler struct {
	loop   *observable.Loop
	router Router
	routes *Map
	cfg    Config

	alerter  alert.Alerter
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	titles   TitleSink
	pub      pubsub.Publisher
	sub      pubsub.Subscriber
	clientID string
	logger   *slog.Logger

	routed      *observable.Property[*Loaded]
	breadcrumbs *observable.Property[[]Breadcrumb]
	loading     *observable.Property[bool]
	title       *observable.Property[string]

	routeSub observable.Subscription
	cancel   context.CancelFunc

	// Loop-owned.
	prev        *Activator
	redirects   int
	loadDeb     *observable.Debouncer
	loadingDeb  *observable.Debouncer
	titleDeb    *observable.Debouncer
	titleValDeb *observable.Debouncer
	stateDeb    *observable.Debouncer
	crumbSub    observable.Subscription
	crumbGen    uint64
	titleSub    observable.Subscription
	closed      bool
}

// NewHandler starts serving routes published by router with the components
// of routes.
func NewHandler(loop *observable.Loop, router Router, routes *Map, opts ...Option) (*Handler, error) {
	if routes == nil {
		return nil, errors.New("routehandler: nil routing map")
	}

	h := &Handler{
		loop:        loop,
		router:      router,
		routes:      routes,
		cfg:         DefaultConfig(),
		logger:      slog.Default(),
		routed:      observable.NewDistinctProperty[*Loaded](nil),
		breadcrumbs: observable.NewProperty[[]Breadcrumb](nil),
		loading:     observable.NewDistinctProperty(false),
		title:       observable.NewDistinctProperty(""),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("service", "route_handler")
	if h.alerter == nil {
		h.alerter = alert.NewBusAlerter(h.pub, h.clientID, h.metrics, h.logger)
	}
	if h.tracer == nil {
		h.tracer = otel.Tracer("github.com/nfrund/hashrouter/internal/routehandler")
	}

	h.loadDeb = observable.NewDebouncer(loop, h.cfg.LoadDebounce)
	h.loadingDeb = observable.NewDebouncer(loop, h.cfg.LoadingDebounce)
	h.titleDeb = observable.NewDebouncer(loop, h.cfg.TitleDebounce)
	h.titleValDeb = observable.NewDebouncer(loop, h.cfg.TitleDebounce)
	h.stateDeb = observable.NewDebouncer(loop, h.cfg.StateDebounce)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	if h.sub != nil {
		err := pubsub.Subscribe(ctx, h.sub, StateChanged, func(_ context.Context, clientID string, change StateChange) error {
			if clientID != "" && clientID != h.clientID {
				return nil
			}
			h.loop.Post(func() { h.onStateChange(change) })
			return nil
		})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("subscribe %s: %w", StateChanged.Name(), err)
		}
	}

	current := router.CurrentRoute()
	h.routeSub = current.Subscribe(func(route *routing.Route) {
		h.loop.Post(func() { h.onRoute(route) })
	})
	if route := current.Value(); route != nil {
		h.loop.Post(func() { h.onRoute(route) })
	}

	return h, nil
}

// RoutedComponent is the active component; nil before the first load.
func (h *Handler) RoutedComponent() observable.Observable[*Loaded] {
	return h.routed
}

// RoutingBreadcrumbs are the breadcrumbs of the active component; nil when
// it has none or is not routable.
func (h *Handler) RoutingBreadcrumbs() observable.Observable[[]Breadcrumb] {
	return h.breadcrumbs
}

// IsLoading reports a route change that has not finished loading.
func (h *Handler) IsLoading() observable.Observable[bool] {
	return h.loading
}

// Title is the current document title.
func (h *Handler) Title() observable.Observable[string] {
	return h.title
}

// Menus returns the dynamic menus of the active component.
func (h *Handler) Menus() Menus {
	if mp, ok := h.routed.Value().valueAs().(MenuProvider); ok {
		return mp.Menus()
	}
	return Menus{}
}

// RequestStateUpdate asks the active component to persist its state into
// the hash. With a bus the request is published so other subscribers see
// it; otherwise it is handled directly.
func (h *Handler) RequestStateUpdate(ctx context.Context, change StateChange) error {
	if h.pub != nil {
		return pubsub.PublishTo(ctx, h.pub, StateChanged, h.clientID, change)
	}
	h.loop.Post(func() { h.onStateChange(change) })
	return nil
}

// Close stops the pipeline and disposes the active component. It must not
// be called from a loop task.
func (h *Handler) Close() {
	h.cancel()
	h.routeSub.Unsubscribe()

	done := make(chan struct{})
	if !h.loop.Post(func() {
		defer close(done)
		h.closed = true
		for _, d := range []*observable.Debouncer{h.loadDeb, h.loadingDeb, h.titleDeb, h.titleValDeb, h.stateDeb} {
			d.Cancel()
		}
		h.unsubscribeCrumbs()
		h.unsubscribeTitle()
		h.routed.Value().Dispose()
	}) {
		return
	}
	select {
	case <-done:
	case <-h.loop.Done():
	}
}

func (h *Handler) onRoute(route *routing.Route) {
	if route == nil || h.closed {
		return
	}
	h.setLoading(true)
	h.loadDeb.Trigger(func() { h.load(route) })
}

// setLoading feeds the debounced loading flag.
func (h *Handler) setLoading(v bool) {
	h.loadingDeb.Trigger(func() { h.loading.Set(v) })
}

func (h *Handler) load(route *routing.Route) {
	ctx, span := h.tracer.Start(context.Background(), "routehandler.load",
		trace.WithAttributes(attribute.String("route.path", route.Path)))
	defer span.End()
	start := time.Now()

	act, err := h.routes.Resolve(route)
	if err != nil {
		h.fail(ctx, span, err)
		return
	}
	span.SetAttributes(attribute.String("route.key", act.Key))

	if act.Fallback {
		h.logger.Warn("No routing map entry, using default", "path", route.Path)
	}

	if act.IsRedirect() {
		h.redirect(ctx, act)
		return
	}
	h.redirects = 0

	loaded, reused, err := h.activate(h.prev, act)
	if err != nil {
		h.metrics.RecordLoad(metrics.LoadFailed, time.Since(start))
		h.fail(ctx, span, err)
		return
	}
	h.prev = act

	result := metrics.LoadCreated
	if reused {
		result = metrics.LoadReused
	}
	h.metrics.RecordLoad(result, time.Since(start))
	span.SetAttributes(attribute.String("load.result", result))
	h.logger.Debug("Component loaded", "path", route.Path, "key", act.Key, "result", result, "kind", loaded.Kind.String())

	h.setRouted(ctx, loaded)
	h.setLoading(false)
}

func (h *Handler) redirect(ctx context.Context, act *Activator) {
	if h.cfg.MaxRedirects > 0 && h.redirects >= h.cfg.MaxRedirects {
		h.metrics.RecordRedirect("map", metrics.RedirectLoop)
		h.logger.Error("Redirect loop detected, dropping redirect",
			"path", act.Route.Path, "target", act.Path, "hops", h.redirects)
		alert.Error(ctx, h.alerter, "Navigation loop",
			fmt.Errorf("%s redirects to %s after %d redirects", act.Route.Path, act.Path, h.redirects))
		h.redirects = 0
		h.setLoading(false)
		return
	}

	h.redirects++
	h.metrics.RecordRedirect("map", metrics.RedirectFollowed)
	h.logger.Debug("Redirecting", "from", act.Route.Path, "to", act.Path)
	h.router.NavTo(act.Path, nil, routing.Replace())
}

// activate reuses the active component when the activation path is
// unchanged and creates a new one otherwise, then pushes routing state into
// it. A new component that fails activation is disposed.
func (h *Handler) activate(prev, next *Activator) (loaded *Loaded, reused bool, err error) {
	current := h.routed.Value()
	ac := h.activationContext(next)

	if prev != nil && current != nil && prev.Path == next.Path {
		loaded, reused = current, true
	} else {
		value, err := guard(func() (any, error) { return next.Creator(ac) })
		if err != nil {
			h.metrics.RecordActivationError(StageCreate)
			return nil, false, &ActivationError{Stage: StageCreate, Key: next.Key, Path: next.Route.Path, Err: err}
		}
		loaded = newLoaded(next, value)
	}

	if _, err := guard(func() (any, error) { applyRoutingState(loaded, next.Route, ac); return nil, nil }); err != nil {
		h.metrics.RecordActivationError(StageState)
		if !reused && !sameComponent(current.valueAs(), loaded.Value) {
			loaded.Dispose()
		}
		return nil, false, &ActivationError{Stage: StageState, Key: next.Key, Path: next.Route.Path, Err: err}
	}
	return loaded, reused, nil
}

func (h *Handler) activationContext(act *Activator) *ActivationContext {
	return &ActivationContext{
		Route:       act.Route,
		MatchGroups: act.Route.Match,
		Navigator:   h.router,
	}
}

func applyRoutingState(l *Loaded, route *routing.Route, ac *ActivationContext) {
	if l.Kind != KindRoutable {
		return
	}
	switch c := l.Value.(type) {
	case StateApplier:
		c.ApplyRoutingState(route.State.Clone(), ac)
	case StateHolder:
		c.SetRoutingState(route.State.Clone(), ac)
	}
}

func (h *Handler) fail(ctx context.Context, span trace.Span, err error) {
	var ae *ActivationError
	if errors.As(err, &ae) && ae.Stage == StageResolve {
		h.metrics.RecordActivationError(StageResolve)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	h.logger.Error("Route activation failed", "error", err)
	alert.Error(ctx, h.alerter, "Unable to open page", err)
	h.setLoading(false)
}

// setRouted publishes loaded and disposes the component it supersedes,
// unless both wrap the same instance.
func (h *Handler) setRouted(ctx context.Context, loaded *Loaded) {
	prev := h.routed.Value()
	if !h.routed.Set(loaded) {
		return
	}
	if prev != nil && !sameComponent(prev.Value, loaded.Value) {
		if _, err := guard(func() (any, error) { prev.Dispose(); return nil, nil }); err != nil {
			h.logger.Error("Disposing component failed", "key", prev.Key, "error", err)
			alert.Error(ctx, h.alerter, "Unable to close page", err)
		}
	}

	if _, err := guard(func() (any, error) { h.switchBreadcrumbs(loaded); return nil, nil }); err != nil {
		h.unsubscribeCrumbs()
		h.breadcrumbs.Set(nil)
		h.logger.Error("Following breadcrumbs failed", "key", loaded.Key, "error", err)
		alert.Error(ctx, h.alerter, "Unable to show navigation", err)
	}
	h.titleDeb.Trigger(func() { h.followTitle(loaded) })
}

// switchBreadcrumbs follows the breadcrumbs of loaded only. Emissions from a
// previous component that were already queued are dropped by generation.
func (h *Handler) switchBreadcrumbs(loaded *Loaded) {
	h.unsubscribeCrumbs()
	h.crumbGen++
	gen := h.crumbGen

	var src observable.Observable[[]Breadcrumb]
	if r, ok := loaded.Routable(); ok {
		src = r.Breadcrumbs()
	}
	if isNilSource(src) {
		h.breadcrumbs.Set(nil)
		return
	}

	h.breadcrumbs.Set(src.Value())
	h.crumbSub = src.Subscribe(func(crumbs []Breadcrumb) {
		h.loop.Post(func() {
			if gen != h.crumbGen {
				return
			}
			h.breadcrumbs.Set(crumbs)
		})
	})
}

func (h *Handler) unsubscribeCrumbs() {
	if h.crumbSub != nil {
		h.crumbSub.Unsubscribe()
		h.crumbSub = nil
	}
}

func (h *Handler) followTitle(loaded *Loaded) {
	if h.closed || h.routed.Value() != loaded {
		return
	}
	h.unsubscribeTitle()
	h.titleValDeb.Cancel()

	if _, err := guard(func() (any, error) { h.subscribeTitle(loaded); return nil, nil }); err != nil {
		h.unsubscribeTitle()
		h.logger.Error("Following document title failed", "key", loaded.Key, "error", err)
		alert.Error(context.Background(), h.alerter, "Unable to show page title", err)
		h.setTitle(displayName(loaded))
	}
}

func (h *Handler) subscribeTitle(loaded *Loaded) {
	var src observable.Observable[string]
	if r, ok := loaded.Routable(); ok {
		src = r.DocumentTitle()
	}
	if isNilSource(src) {
		h.setTitle(staticTitle(loaded))
		return
	}

	update := func(title string) {
		h.titleValDeb.Trigger(func() {
			if h.routed.Value() != loaded {
				return
			}
			if title == "" {
				title = displayName(loaded)
				h.logger.Warn("Routed component has no document title", "key", loaded.Key, "fallback", title)
			}
			h.setTitle(title)
		})
	}
	update(src.Value())
	h.titleSub = src.Subscribe(func(title string) {
		h.loop.Post(func() { update(title) })
	})
}

func (h *Handler) unsubscribeTitle() {
	if h.titleSub != nil {
		h.titleSub.Unsubscribe()
		h.titleSub = nil
	}
}

func (h *Handler) setTitle(title string) {
	if h.title.Set(title) && h.titles != nil {
		h.titles.SetTitle(title)
	}
}

func (h *Handler) onStateChange(change StateChange) {
	if h.closed {
		return
	}
	h.stateDeb.Trigger(func() {
		loaded := h.routed.Value()
		route := h.router.CurrentRoute().Value()
		if loaded == nil || route == nil {
			return
		}

		var state hashcodec.State
		_, err := guard(func() (any, error) {
			switch c := loaded.Value.(type) {
			case StateApplier:
				state = c.CreateRoutingState(&change)
			case StateHolder:
				state = c.GetRoutingState(&change)
			}
			return nil, nil
		})
		if err != nil {
			h.logger.Error("Reading routing state failed", "key", loaded.Key, "error", err)
			alert.Error(context.Background(), h.alerter, "Unable to save page state", err)
			return
		}
		if state == nil {
			return
		}
		h.router.NavTo(route.Path, state)
	})
}

// guard runs fn, turning a panic into an error.
func guard(fn func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
