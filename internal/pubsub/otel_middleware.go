package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startMessageSpan starts a span named "<operation> <topic>" for msg and
// stores its context on the message so handlers downstream continue the trace.
func startMessageSpan(tracer trace.Tracer, operation, topic string, msg *message.Message) trace.Span {
	ctx := msg.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	spanCtx, span := tracer.Start(ctx, operation+" "+topic,
		trace.WithSpanKind(spanKind(operation)),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", operation),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.message_id", msg.UUID),
			attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
			attribute.String("routing.client_id", msg.Metadata.Get(metaKeyClientID)),
		),
	)
	msg.SetContext(spanCtx)
	return span
}

func spanKind(operation string) trace.SpanKind {
	if operation == "publish" {
		return trace.SpanKindProducer
	}
	return trace.SpanKindConsumer
}

func endWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TracingMiddleware traces every message a subscription handler processes.
func TracingMiddleware(tracer trace.Tracer) func(message.HandlerFunc) message.HandlerFunc {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			span := startMessageSpan(tracer, "process", msg.Metadata.Get(metaKeyTopic), msg)
			produced, err := h(msg)
			endWithError(span, err)
			return produced, err
		}
	}
}

// PublisherTracingMiddleware is a message.Publisher that traces every
// published message.
type PublisherTracingMiddleware struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

// NewPublisherTracingMiddleware wraps publisher.
func NewPublisherTracingMiddleware(publisher message.Publisher, tracer trace.Tracer) *PublisherTracingMiddleware {
	return &PublisherTracingMiddleware{
		publisher: publisher,
		tracer:    tracer,
	}
}

// Publish implements message.Publisher.
func (p *PublisherTracingMiddleware) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, len(messages))
	for i, msg := range messages {
		spans[i] = startMessageSpan(p.tracer, "publish", topic, msg)
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		endWithError(span, err)
	}
	return err
}

// Close closes the underlying publisher.
func (p *PublisherTracingMiddleware) Close() error {
	return p.publisher.Close()
}
