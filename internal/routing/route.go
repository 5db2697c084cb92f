// Package routing owns the current route. It turns hash changes into routes,
// rewrites non-canonical hashes in place and turns navigation requests into
// hash updates.
package routing

import (
	"slices"

	"github.com/nfrund/hashrouter/internal/hashcodec"
)

// Route is one decoded navigation target. Routes are not modified once
// published; WithMatch returns a copy.
type Route struct {
	Path   string          `json:"path"`
	Params string          `json:"params,omitempty"`
	State  hashcodec.State `json:"state,omitempty"`
	// Match holds the groups of the routing-map pattern that resolved the
	// route, with the full match at index 0.
	Match []string `json:"match,omitempty"`
}

// Decode turns a raw hash into a route. It never fails.
func Decode(hash string) *Route {
	return hashcodec.Decode(hash, func(path, params string, state hashcodec.State) *Route {
		return &Route{Path: path, Params: params, State: state}
	})
}

// Hash returns the canonical hash for the route.
func (r *Route) Hash() string {
	return hashcodec.Encode(r.Path, r.State, false)
}

// WithMatch returns a copy of r carrying match.
func (r *Route) WithMatch(match []string) *Route {
	c := *r
	c.State = r.State.Clone()
	c.Match = slices.Clone(match)
	return &c
}

// MatchGroup returns capture group i, or "" when absent.
func (r *Route) MatchGroup(i int) string {
	if r == nil || i < 0 || i >= len(r.Match) {
		return ""
	}
	return r.Match[i]
}

// Equal reports whether two routes have the same path, state and match.
func (r *Route) Equal(other *Route) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Path == other.Path &&
		r.Params == other.Params &&
		r.State.Equal(other.State) &&
		slices.Equal(r.Match, other.Match)
}

func (r *Route) String() string {
	if r == nil {
		return "<nil>"
	}
	return r.Hash()
}
