package example

import (
	"github.com/nfrund/hashrouter/internal/config"
	"github.com/nfrund/hashrouter/internal/routehandler"
)

// ItemPattern matches item detail paths.
const ItemPattern = `^/items/(\d+)$`

// Map builds the example routing map, adding the redirects and titles of
// routes when given.
func Map(routes *config.Routes) (*routehandler.Map, error) {
	b := routehandler.NewMap().
		Handle("/", NewHome).
		Handle("/items", NewItemList).
		HandlePattern(ItemPattern, NewItemDetail).
		Handle("/about", NewAbout).
		Redirect("/home", "/").
		Redirect("/products", "/items").
		RedirectPattern(`^/catalog(/.*)?$`, "/items").
		Default(NewNotFound)

	if routes != nil {
		for from, to := range routes.Redirects {
			b.Redirect(from, to)
		}
		for key, title := range routes.Titles {
			b.Title(key, title)
		}
	}
	return b.Build()
}
