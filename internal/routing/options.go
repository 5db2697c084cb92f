package routing

import (
	"log/slog"

	"github.com/nfrund/hashrouter/internal/alert"
	"github.com/nfrund/hashrouter/internal/metrics"
)

// DefaultMaxRedirects bounds consecutive redirects before the loop guard trips.
const DefaultMaxRedirects = 10

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithAlerter sets where redirect loop alerts go.
func WithAlerter(a alert.Alerter) Option {
	return func(m *Manager) { m.alerter = a }
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithMaxRedirects caps consecutive self-heal hops. Zero disables the guard.
func WithMaxRedirects(n int) Option {
	return func(m *Manager) { m.maxRedirects = n }
}

// NavOption modifies a single navigation.
type NavOption func(*navRequest)

type navRequest struct {
	replace   bool
	uriEncode bool
	from      *Route
}

// Replace replaces the current history entry instead of pushing one.
func Replace() NavOption {
	return func(r *navRequest) { r.replace = true }
}

// URIEncode writes the query fully percent-encoded instead of readable.
// The readable form is canonical: when the encoded hash differs from it the
// manager heals it back with a replace, so the option only affects the
// history entry that is pushed first.
func URIEncode() NavOption {
	return func(r *navRequest) { r.uriEncode = true }
}

// FromRoute navigates to route's path; the explicit path argument is ignored.
func FromRoute(route *Route) NavOption {
	return func(r *navRequest) { r.from = route }
}
