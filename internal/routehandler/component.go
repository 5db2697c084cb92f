package routehandler

import (
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/nfrund/hashrouter/internal/hashcodec"
	"github.com/nfrund/hashrouter/internal/observable"
	"github.com/nfrund/hashrouter/internal/routing"
)

// ActivationContext is what a component learns about the route it serves.
type ActivationContext struct {
	Route *routing.Route
	// MatchGroups are the capture groups of the matching pattern entry,
	// whole match first; nil for literal entries.
	MatchGroups []string
	Navigator   routing.Navigator
}

// Group returns capture group i, or "".
func (ac *ActivationContext) Group(i int) string {
	if ac == nil || i < 0 || i >= len(ac.MatchGroups) {
		return ""
	}
	return ac.MatchGroups[i]
}

// Breadcrumb is one step of the navigation trail.
type Breadcrumb struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	Key   string `json:"key,omitempty"`
}

// Routable is implemented by components that take part in routing.
type Routable interface {
	// RoutingKey names the view that renders the component.
	RoutingKey() string
	Breadcrumbs() observable.Observable[[]Breadcrumb]
	DocumentTitle() observable.Observable[string]
}

// StateHolder round-trips component state through the hash.
type StateHolder interface {
	GetRoutingState(change *StateChange) hashcodec.State
	SetRoutingState(state hashcodec.State, ac *ActivationContext)
}

// StateApplier is the newer form of StateHolder. It is preferred when a
// component implements both.
type StateApplier interface {
	CreateRoutingState(change *StateChange) hashcodec.State
	ApplyRoutingState(state hashcodec.State, ac *ActivationContext)
}

// Disposable components are disposed when they stop being routed.
type Disposable interface {
	Dispose()
}

// Named components supply the name used when they have no title.
type Named interface {
	DisplayName() string
}

// MenuItem is a dynamic menu or action entry.
type MenuItem struct {
	Title   string `json:"title"`
	Path    string `json:"path,omitempty"`
	Command string `json:"command,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

// Menus are the dynamic menus a routed component contributes to the page
// header.
type Menus struct {
	Sidebar []MenuItem `json:"sidebar,omitempty"`
	Navbar  []MenuItem `json:"navbar,omitempty"`
	Help    []MenuItem `json:"help,omitempty"`
	Admin   []MenuItem `json:"admin,omitempty"`
	User    []MenuItem `json:"user,omitempty"`
}

// MenuProvider components contribute menus.
type MenuProvider interface {
	Menus() Menus
}

// Kind tags a loaded component with its capabilities.
type Kind int

const (
	// KindEmpty is a load that produced no component.
	KindEmpty Kind = iota
	// KindStatic is a component without routing capabilities.
	KindStatic
	// KindRoutable is a component implementing Routable.
	KindRoutable
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindRoutable:
		return "routable"
	default:
		return "empty"
	}
}

// Loaded is a routed component together with the activation that produced
// it. A reused component keeps its Loaded value.
type Loaded struct {
	ID    uuid.UUID
	Value any
	Kind  Kind
	// Key and Path are the activator's; Title is the map entry title.
	Key   string
	Path  string
	Title string

	disposeOnce sync.Once
}

func newLoaded(act *Activator, value any) *Loaded {
	kind := KindEmpty
	switch value.(type) {
	case nil:
	case Routable:
		kind = KindRoutable
	default:
		kind = KindStatic
	}
	return &Loaded{
		ID:    uuid.New(),
		Value: value,
		Kind:  kind,
		Key:   act.Key,
		Path:  act.Path,
		Title: act.Title,
	}
}

// Routable returns the component as Routable when it is one.
func (l *Loaded) Routable() (Routable, bool) {
	if l == nil || l.Kind != KindRoutable {
		return nil, false
	}
	r, ok := l.Value.(Routable)
	return r, ok
}

func (l *Loaded) valueAs() any {
	if l == nil {
		return nil
	}
	return l.Value
}

// RoutingKey returns the component's routing key, or "" for non-routable
// components.
func (l *Loaded) RoutingKey() string {
	if r, ok := l.Routable(); ok {
		return r.RoutingKey()
	}
	return ""
}

// Dispose disposes the component once; later calls do nothing.
func (l *Loaded) Dispose() {
	if l == nil {
		return
	}
	l.disposeOnce.Do(func() {
		if d, ok := l.Value.(Disposable); ok {
			d.Dispose()
		}
	})
}

// sameComponent reports whether a and b are the same component instance.
// Values of non-comparable types are never the same.
func sameComponent(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// isNilSource reports whether an observable returned by a component is
// absent, including typed nil pointers wrapped in the interface.
func isNilSource(src any) bool {
	if src == nil {
		return true
	}
	v := reflect.ValueOf(src)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
