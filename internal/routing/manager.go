package routing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/hashrouter/internal/alert"
	"github.com/nfrund/hashrouter/internal/hashcodec"
	"github.com/nfrund/hashrouter/internal/hashmgr"
	"github.com/nfrund/hashrouter/internal/metrics"
	"github.com/nfrund/hashrouter/internal/observable"
)

// Navigator requests navigation.
type Navigator interface {
	NavTo(path string, state hashcodec.State, opts ...NavOption)
}

// Manager publishes the current route. Every hash is processed on the loop,
// so a rewrite triggered while handling one hash is handled on a later task.
type Manager struct {
	loop    *observable.Loop
	hashes  hashmgr.HashManager
	current *observable.Property[*Route]
	sub     observable.Subscription

	// Loop-owned.
	lastHash string
	seen     bool
	heals    int

	maxRedirects int
	alerter      alert.Alerter
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

var _ Navigator = (*Manager)(nil)

// NewManager starts tracking hashes. The hash present at construction is
// processed first, followed by every distinct change.
func NewManager(loop *observable.Loop, hashes hashmgr.HashManager, opts ...Option) *Manager {
	m := &Manager{
		loop:         loop,
		hashes:       hashes,
		current:      observable.NewProperty[*Route](nil),
		maxRedirects: DefaultMaxRedirects,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.alerter == nil {
		m.alerter = alert.NewBusAlerter(nil, "", m.metrics, m.logger)
	}
	m.logger = m.logger.With("service", "route_manager")

	initial := hashes.CurrentHash()
	m.loop.Post(func() { m.process(initial) })
	m.sub = hashes.HashChanged().Subscribe(func(hash string) {
		m.loop.Post(func() { m.process(hash) })
	})
	return m
}

// CurrentRoute is the most recently published route; nil until the first one.
func (m *Manager) CurrentRoute() observable.Observable[*Route] {
	return m.current
}

// NavTo resolves path against the current route, encodes it with state and
// hands the hash to the hash manager. It may be called from any goroutine.
func (m *Manager) NavTo(path string, state hashcodec.State, opts ...NavOption) {
	var req navRequest
	for _, opt := range opts {
		opt(&req)
	}
	if req.from != nil {
		path = req.from.Path
	}

	base := "/"
	if cur := m.current.Value(); cur != nil {
		base = cur.Path
	}
	resolved := hashcodec.ResolvePath(base, path)
	hash := hashcodec.Encode(resolved, state, req.uriEncode)

	m.logger.Debug("Navigating", "path", resolved, "hash", hash, "replace", req.replace)
	m.hashes.UpdateHash(hash, state, "", req.replace)
}

// Close stops following hash changes.
func (m *Manager) Close() {
	if m.sub != nil {
		m.sub.Unsubscribe()
	}
}

func (m *Manager) process(hash string) {
	if m.seen && hash == m.lastHash {
		return
	}
	m.seen = true
	m.lastHash = hash

	route := Decode(hash)
	canonical := route.Hash()

	if canonical != hash {
		if m.maxRedirects <= 0 || m.heals < m.maxRedirects {
			m.heals++
			m.metrics.RecordSelfHeal()
			m.metrics.RecordRedirect("hash", metrics.RedirectFollowed)
			m.logger.Debug("Rewriting non-canonical hash", "hash", hash, "canonical", canonical)
			m.NavTo(route.Path, route.State, Replace())
			return
		}

		m.metrics.RecordRedirect("hash", metrics.RedirectLoop)
		m.logger.Error("Hash rewrite loop detected, publishing route as-is",
			"hash", hash, "canonical", canonical, "hops", m.heals)
		alert.Error(context.Background(), m.alerter, "Navigation loop",
			fmt.Errorf("hash %q was rewritten %d times without settling", hash, m.heals))
	}

	m.heals = 0
	m.metrics.RecordRouteChange()
	m.logger.Debug("Route changed", "route", route.String())
	m.current.Set(route)
}
