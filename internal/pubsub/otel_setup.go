package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig configures OpenTelemetry tracing of the bus and the
// routing pipeline.
type TracingConfig struct {
	Enabled     bool
	ServiceName string `validate:"required_if=Enabled true"`
	ZipkinURL   string `validate:"omitempty,url"`
}

// DefaultTracingConfig has tracing off.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "hashrouter",
		ZipkinURL:   "http://localhost:9411/api/v2/spans",
	}
}

// tracerName identifies spans started by the bus.
const tracerName = "github.com/nfrund/hashrouter/internal/pubsub"

// SetupOTel returns the tracer for bus spans and a cleanup function. With
// tracing disabled the tracer is a no-op; otherwise spans are batched to the
// Zipkin collector and the provider becomes the global one, so handler load
// spans share it.
func SetupOTel(ctx context.Context, config TracingConfig) (trace.Tracer, func(), error) {
	if !config.Enabled {
		return noop.NewTracerProvider().Tracer(tracerName), func() {}, nil
	}

	exporter, err := zipkin.New(config.ZipkinURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create zipkin exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Tracer provider shutdown failed", "error", err)
		}
	}
	return tp.Tracer(tracerName), cleanup, nil
}
