package routehandler

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/hashrouter/internal/alert"
	"github.com/nfrund/hashrouter/internal/metrics"
	"github.com/nfrund/hashrouter/internal/pubsub"
)

// Config holds the pipeline timings. The four windows gate different effects
// and are tuned independently.
type Config struct {
	// LoadDebounce coalesces bursts of route changes into one load.
	LoadDebounce time.Duration
	// LoadingDebounce delays loading indicator changes.
	LoadingDebounce time.Duration
	// TitleDebounce delays document title updates.
	TitleDebounce time.Duration
	// StateDebounce coalesces routing state change requests.
	StateDebounce time.Duration
	// MaxRedirects caps consecutive routing-map redirects. Zero disables the cap.
	MaxRedirects int
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		LoadDebounce:    100 * time.Millisecond,
		LoadingDebounce: 500 * time.Millisecond,
		TitleDebounce:   100 * time.Millisecond,
		StateDebounce:   100 * time.Millisecond,
		MaxRedirects:    10,
	}
}

// Option configures a Handler.
type Option func(*Handler)

// WithConfig sets the pipeline timings.
func WithConfig(cfg Config) Option {
	return func(h *Handler) { h.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithAlerter sets where failures are reported to the user.
func WithAlerter(a alert.Alerter) Option {
	return func(h *Handler) { h.alerter = a }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithTracer sets the tracer for load spans.
func WithTracer(t trace.Tracer) Option {
	return func(h *Handler) { h.tracer = t }
}

// WithTitleSink sets where document titles are written.
func WithTitleSink(s TitleSink) Option {
	return func(h *Handler) { h.titles = s }
}

// WithBus routes state change requests over the bus. Only messages for
// clientID, or for no client, are handled.
func WithBus(pub pubsub.Publisher, sub pubsub.Subscriber, clientID string) Option {
	return func(h *Handler) {
		h.pub = pub
		h.sub = sub
		h.clientID = clientID
	}
}
