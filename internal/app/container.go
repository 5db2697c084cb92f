// Package app wires the routing engine together. NewContainer registers the
// services shared by every engine of a process; NewEngine builds one engine
// per browser window on top of them.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/hashrouter/internal/config"
	"github.com/nfrund/hashrouter/internal/example"
	"github.com/nfrund/hashrouter/internal/metrics"
	"github.com/nfrund/hashrouter/internal/pubsub"
	"github.com/nfrund/hashrouter/internal/routehandler"
)

// Tracing owns the tracer provider for the lifetime of the container.
type Tracing struct {
	Tracer  trace.Tracer
	Enabled bool
	cleanup func()
}

// Shutdown flushes and stops the tracer provider.
func (t *Tracing) Shutdown() {
	if t.cleanup != nil {
		t.cleanup()
	}
}

// NewContainer registers the shared services. Nothing is built until it is
// first invoked; call Shutdown on the returned scope to release them.
func NewContainer(cfg *config.Config, logger *slog.Logger, fs afero.Fs) *do.RootScope {
	i := do.New()
	do.ProvideValue(i, cfg)
	do.ProvideValue(i, logger)
	do.ProvideValue(i, fs)
	do.Provide(i, provideRegistry)
	do.Provide(i, provideMetrics)
	do.Provide(i, provideTracing)
	do.Provide(i, provideBus)
	do.Provide(i, provideRoutes)
	do.Provide(i, provideRoutingMap)
	return i
}

func provideRegistry(do.Injector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return reg, nil
}

func provideMetrics(i do.Injector) (*metrics.Metrics, error) {
	reg, err := do.Invoke[*prometheus.Registry](i)
	if err != nil {
		return nil, err
	}
	m := metrics.NewMetrics("hashrouter", reg)
	m.Init()
	return m, nil
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tracer, cleanup, err := pubsub.SetupOTel(context.Background(), cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	return &Tracing{Tracer: tracer, Enabled: cfg.Tracing.Enabled, cleanup: cleanup}, nil
}

func provideBus(i do.Injector) (*pubsub.WatermillBridge, error) {
	tracing, err := do.Invoke[*Tracing](i)
	if err != nil {
		return nil, err
	}
	if tracing.Enabled {
		return pubsub.NewWatermillBridgeWithTracer(tracing.Tracer), nil
	}
	return pubsub.NewWatermillBridge(), nil
}

func provideRoutes(i do.Injector) (*config.Routes, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.RoutesFile == "" {
		return &config.Routes{}, nil
	}
	fs := do.MustInvoke[afero.Fs](i)
	routes, err := config.LoadRoutes(fs, cfg.RoutesFile)
	if err != nil {
		return nil, err
	}
	do.MustInvoke[*slog.Logger](i).Info("Loaded routes file",
		"path", cfg.RoutesFile, "redirects", len(routes.Redirects), "titles", len(routes.Titles))
	return routes, nil
}

func provideRoutingMap(i do.Injector) (*routehandler.Map, error) {
	routes, err := do.Invoke[*config.Routes](i)
	if err != nil {
		return nil, err
	}
	return example.Map(routes)
}
