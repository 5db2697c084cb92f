// Package routehandler turns route changes into routed components.
//
// For every route published by the route manager the Handler resolves an
// activator from the routing Map, follows redirect entries, reuses or
// creates the component, pushes routing state into it and retires the
// component it replaces. It also keeps the breadcrumbs, the loading flag and
// the document title in step with whatever component is routed.
//
// A routing map is built once at startup:
//
//	rm, err := routehandler.NewMap().
//		Handle("/", newHome).
//		HandlePattern(`^/items/(\d+)$`, newItem).
//		Redirect("/index", "/").
//		Default(newNotFound).
//		Build()
//
// Literal keys are looked up first, then patterns in declaration order, then
// the default entry.
//
// All pipeline work runs on the observable.Loop given to NewHandler.
// Components are created, fed routing state and disposed on that goroutine.
package routehandler
