// Package alert surfaces non-fatal routing failures to the user. Display is
// somebody else's job: alerts are logged and published on the routing.alert
// topic for whatever renders them.
package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/nfrund/hashrouter/internal/metrics"
	"github.com/nfrund/hashrouter/internal/pubsub"
)

// Level is the alert severity.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Alert is a user-facing notification.
type Alert struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Raised is published for every alert.
var Raised = pubsub.NewEvent[Alert]("routing.alert", "Non-fatal routing failure to show to the user")

// Alerter raises alerts.
type Alerter interface {
	Raise(ctx context.Context, a Alert)
}

// Func adapts a function to Alerter.
type Func func(ctx context.Context, a Alert)

// Raise implements Alerter.
func (f Func) Raise(ctx context.Context, a Alert) { f(ctx, a) }

// Error raises an error alert for err under title.
func Error(ctx context.Context, a Alerter, title string, err error) {
	a.Raise(ctx, Alert{Level: LevelError, Title: title, Message: err.Error()})
}

// Warning raises a warning alert.
func Warning(ctx context.Context, a Alerter, title, message string) {
	a.Raise(ctx, Alert{Level: LevelWarning, Title: title, Message: message})
}

// BusAlerter logs alerts and publishes them for one client.
type BusAlerter struct {
	publisher pubsub.Publisher
	clientID  string
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewBusAlerter creates an alerter. A nil publisher only logs.
func NewBusAlerter(publisher pubsub.Publisher, clientID string, m *metrics.Metrics, logger *slog.Logger) *BusAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BusAlerter{
		publisher: publisher,
		clientID:  clientID,
		metrics:   m,
		logger:    logger.With("service", "alert"),
	}
}

// Raise implements Alerter.
func (b *BusAlerter) Raise(ctx context.Context, a Alert) {
	if a.Level == "" {
		a.Level = LevelError
	}
	if a.Time.IsZero() {
		a.Time = time.Now()
	}

	b.logger.Log(ctx, slogLevel(a.Level), "Alert raised",
		"client_id", b.clientID,
		"title", a.Title,
		"message", a.Message)
	b.metrics.RecordAlert(string(a.Level))

	if b.publisher == nil {
		return
	}
	if err := pubsub.PublishTo(ctx, b.publisher, Raised, b.clientID, a); err != nil {
		b.logger.Error("Failed to publish alert", "title", a.Title, "error", err)
	}
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
