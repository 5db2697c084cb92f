// Package metrics exposes Prometheus instruments for the routing engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "router"

// Load results recorded by RecordLoad.
const (
	LoadCreated = "created"
	LoadReused  = "reused"
	LoadFailed  = "failed"
)

// Redirect outcomes recorded by RecordRedirect.
const (
	RedirectFollowed = "followed"
	RedirectLoop     = "loop"
)

// Metrics contains routing metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// routeChanges counts routes published as current.
	routeChanges prometheus.Counter

	// selfHeals counts hashes rewritten to their canonical form.
	selfHeals prometheus.Counter

	// redirects counts routing-map and self-heal redirects by outcome.
	redirects *prometheus.CounterVec

	// loads counts component loads by result.
	loads *prometheus.CounterVec

	// loadDuration measures activator resolution plus component creation.
	loadDuration prometheus.Histogram

	// activationErrors counts failures by pipeline stage.
	activationErrors *prometheus.CounterVec

	// alerts counts user alerts by level.
	alerts *prometheus.CounterVec

	// clients tracks connected remote browser tabs.
	clients prometheus.Gauge
}

// NewMetrics creates routing metrics registered with registerer. A nil
// registerer uses prometheus.DefaultRegisterer.
func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "hashrouter"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{}

	m.routeChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "route_changes_total",
		Help:      "Total number of routes published as current",
	})

	m.selfHeals = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "self_heals_total",
		Help:      "Total number of non-canonical hashes replaced by their canonical form",
	})

	m.redirects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "redirects_total",
		Help:      "Total number of redirects by outcome",
	}, []string{"source", "outcome"})

	m.loads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "component_loads_total",
		Help:      "Total number of routed component loads by result",
	}, []string{"result"})

	m.loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "load_duration_seconds",
		Help:      "Activator resolution and component creation duration in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	m.activationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "activation_errors_total",
		Help:      "Total number of activation failures by stage",
	}, []string{"stage"})

	m.alerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "alerts_total",
		Help:      "Total number of user alerts raised by level",
	}, []string{"level"})

	m.clients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "remote_clients",
		Help:      "Number of connected remote browser tabs",
	})

	// Register all metrics with the provided registerer, ignoring duplicates.
	collectors := []prometheus.Collector{
		m.routeChanges,
		m.selfHeals,
		m.redirects,
		m.loads,
		m.loadDuration,
		m.activationErrors,
		m.alerts,
		m.clients,
	}
	for _, c := range collectors {
		_ = registerer.Register(c)
	}

	return m
}

// Init pre-initializes label combinations so every series is exported from
// startup.
func (m *Metrics) Init() {
	if m == nil || m.redirects == nil {
		return
	}
	for _, source := range []string{"hash", "map"} {
		for _, outcome := range []string{RedirectFollowed, RedirectLoop} {
			m.redirects.WithLabelValues(source, outcome)
		}
	}
	for _, result := range []string{LoadCreated, LoadReused, LoadFailed} {
		m.loads.WithLabelValues(result)
	}
	for _, stage := range []string{"resolve", "create"} {
		m.activationErrors.WithLabelValues(stage)
	}
}

// RecordRouteChange records a route published as current.
func (m *Metrics) RecordRouteChange() {
	if m == nil || m.routeChanges == nil {
		return
	}
	m.routeChanges.Inc()
}

// RecordSelfHeal records a canonicalizing hash replacement.
func (m *Metrics) RecordSelfHeal() {
	if m == nil || m.selfHeals == nil {
		return
	}
	m.selfHeals.Inc()
}

// RecordRedirect records a redirect. Source is "hash" for self-heal hops and
// "map" for routing-map redirects.
func (m *Metrics) RecordRedirect(source, outcome string) {
	if m == nil || m.redirects == nil {
		return
	}
	m.redirects.WithLabelValues(source, outcome).Inc()
}

// RecordLoad records a component load and how long it took.
func (m *Metrics) RecordLoad(result string, duration time.Duration) {
	if m == nil || m.loads == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
	m.loadDuration.Observe(duration.Seconds())
}

// RecordActivationError records a failure in the given pipeline stage.
func (m *Metrics) RecordActivationError(stage string) {
	if m == nil || m.activationErrors == nil {
		return
	}
	m.activationErrors.WithLabelValues(stage).Inc()
}

// RecordAlert records a raised alert.
func (m *Metrics) RecordAlert(level string) {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(level).Inc()
}

// ClientConnected increments the remote client gauge.
func (m *Metrics) ClientConnected() {
	if m == nil || m.clients == nil {
		return
	}
	m.clients.Inc()
}

// ClientDisconnected decrements the remote client gauge.
func (m *Metrics) ClientDisconnected() {
	if m == nil || m.clients == nil {
		return
	}
	m.clients.Dec()
}
