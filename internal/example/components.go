// Package example is a small routed application: a home page, an item
// catalog with list and detail views, an about page and a not-found page.
// The CLI and the HTTP server run it, and the end-to-end tests drive it.
package example

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/nfrund/hashrouter/internal/hashcodec"
	"github.com/nfrund/hashrouter/internal/observable"
	"github.com/nfrund/hashrouter/internal/routehandler"
)

// Item is a catalog entry.
type Item struct {
	ID   int
	Name string
}

// Catalog is the fixed item set the example serves.
var Catalog = []Item{
	{ID: 1, Name: "Desk lamp"},
	{ID: 2, Name: "Office chair"},
	{ID: 7, Name: "Standing desk"},
	{ID: 42, Name: "Towel"},
}

func findItem(id int) (Item, bool) {
	for _, it := range Catalog {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Editable components accept state edits from outside the router. Edits are
// written to the hash by a later state update request.
type Editable interface {
	Set(key, value string)
}

// page carries what every example view has in common.
type page struct {
	key    string
	crumbs *observable.Property[[]routehandler.Breadcrumb]
	title  *observable.Property[string]

	mu       sync.Mutex
	state    hashcodec.State
	disposed bool
}

func newPage(key, title string, crumbs ...routehandler.Breadcrumb) *page {
	return &page{
		key:    key,
		crumbs: observable.NewProperty(crumbs),
		title:  observable.NewProperty(title),
		state:  hashcodec.State{},
	}
}

func (p *page) RoutingKey() string { return p.key }

func (p *page) Breadcrumbs() observable.Observable[[]routehandler.Breadcrumb] { return p.crumbs }

func (p *page) DocumentTitle() observable.Observable[string] { return p.title }

// Set implements Editable.
func (p *page) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if value == "" {
		delete(p.state, key)
		return
	}
	p.state[key] = value
}

// State returns a copy of the page state.
func (p *page) State() hashcodec.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

func (p *page) replaceState(s hashcodec.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s.Clone()
	if p.state == nil {
		p.state = hashcodec.State{}
	}
}

// Dispose marks the page disposed.
func (p *page) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disposed = true
}

// Disposed reports whether the router has let go of the page.
func (p *page) Disposed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposed
}

var homeCrumb = routehandler.Breadcrumb{Title: "Home", Path: "/"}

// Home is the landing page.
type Home struct {
	*page
}

// NewHome creates the home page.
func NewHome(*routehandler.ActivationContext) (any, error) {
	return &Home{page: newPage("home", "Home", homeCrumb)}, nil
}

// GetRoutingState implements routehandler.StateHolder.
func (h *Home) GetRoutingState(*routehandler.StateChange) hashcodec.State { return h.State() }

// SetRoutingState implements routehandler.StateHolder.
func (h *Home) SetRoutingState(state hashcodec.State, _ *routehandler.ActivationContext) {
	h.replaceState(state)
}

// ItemList lists the catalog. Its page and sort order live in the hash.
type ItemList struct {
	*page
	nav routehandler.ActivationContext
}

// NewItemList creates the item list.
func NewItemList(ac *routehandler.ActivationContext) (any, error) {
	return &ItemList{
		page: newPage("items", "Items", homeCrumb, routehandler.Breadcrumb{Title: "Items", Path: "/items"}),
		nav:  *ac,
	}, nil
}

// Page returns the current page number, starting at 1.
func (l *ItemList) Page() int {
	if n, ok := l.State().Int("page"); ok && n > 0 {
		return n
	}
	return 1
}

// CreateRoutingState implements routehandler.StateApplier.
func (l *ItemList) CreateRoutingState(*routehandler.StateChange) hashcodec.State {
	return l.State()
}

// ApplyRoutingState implements routehandler.StateApplier.
func (l *ItemList) ApplyRoutingState(state hashcodec.State, _ *routehandler.ActivationContext) {
	l.replaceState(state)
	if l.Page() > 1 {
		l.title.Set(fmt.Sprintf("Items (page %d)", l.Page()))
	} else {
		l.title.Set("Items")
	}
}

// Menus implements routehandler.MenuProvider.
func (l *ItemList) Menus() routehandler.Menus {
	return routehandler.Menus{
		Navbar:  []routehandler.MenuItem{{Title: "Next page", Command: "items.next"}},
		Sidebar: []routehandler.MenuItem{{Title: "About", Path: "/about"}},
	}
}

// Open navigates to the detail view of item id, relative to the list.
func (l *ItemList) Open(id int) {
	l.nav.Navigator.NavTo(strconv.Itoa(id), nil)
}

// ItemDetail shows one item. The item ID comes from the route pattern.
type ItemDetail struct {
	*page
	item Item
}

// NewItemDetail creates the detail view for the ID captured by the route.
func NewItemDetail(ac *routehandler.ActivationContext) (any, error) {
	id, err := strconv.Atoi(ac.Group(1))
	if err != nil {
		return nil, fmt.Errorf("item id %q: %w", ac.Group(1), err)
	}
	item, ok := findItem(id)
	if !ok {
		return nil, fmt.Errorf("item %d does not exist", id)
	}

	d := &ItemDetail{
		page: newPage("item", item.Name,
			homeCrumb,
			routehandler.Breadcrumb{Title: "Items", Path: "/items"},
			routehandler.Breadcrumb{Title: item.Name, Path: fmt.Sprintf("/items/%d", item.ID)}),
		item: item,
	}
	return d, nil
}

// Item returns the item shown.
func (d *ItemDetail) Item() Item { return d.item }

// GetRoutingState implements routehandler.StateHolder.
func (d *ItemDetail) GetRoutingState(*routehandler.StateChange) hashcodec.State { return d.State() }

// SetRoutingState implements routehandler.StateHolder.
func (d *ItemDetail) SetRoutingState(state hashcodec.State, _ *routehandler.ActivationContext) {
	d.replaceState(state)
}

// DisplayName implements routehandler.Named.
func (d *ItemDetail) DisplayName() string { return "Item " + strconv.Itoa(d.item.ID) }

// About is a static page.
type About struct{}

// NewAbout creates the about page.
func NewAbout(*routehandler.ActivationContext) (any, error) { return About{}, nil }

func (About) String() string { return "About" }

// NotFound is shown for unknown paths.
type NotFound struct {
	Path string
}

// NewNotFound creates the not-found page for the requested path.
func NewNotFound(ac *routehandler.ActivationContext) (any, error) {
	return &NotFound{Path: ac.Route.Path}, nil
}

func (n *NotFound) String() string { return "Not Found: " + n.Path }
