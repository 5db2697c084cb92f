package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/hashrouter/internal/topicmgr"
)

// Event[T] is a topic whose payload is always a T.
type Event[T any] struct {
	topicName string
	config    topicmgr.TopicConfig
}

// NewEvent defines a typed event and registers its topic with the default
// topic manager. Names outside the reserved namespaces belong to the module
// named by their first segment. The payload's JSON field names are recorded
// as metadata.
func NewEvent[T any](name string, description string) Event[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0)
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			fieldName, _, _ := strings.Cut(tag, ",")
			fields = append(fields, fieldName)
		}
	}

	module, _, _ := strings.Cut(name, ".")

	config := topicmgr.TopicConfig{
		Name:        name,
		Module:      module,
		Description: description,
		Pattern:     name,
		Metadata: map[string]interface{}{
			"payload_fields": fields,
			"type_name":      t.Name(),
			"is_typed":       true,
		},
	}

	// Events are package-level variables; a bad definition is a programming
	// error that should stop startup.
	topicmgr.Default().MustRegister(topicmgr.Define(config))

	return Event[T]{
		topicName: name,
		config:    config,
	}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// Publish sends a typed event.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	return PublishTo(ctx, p, event, "", payload)
}

// PublishTo sends a typed event concerning one client.
func PublishTo[T any](ctx context.Context, p Publisher, event Event[T], clientID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.Name(), err)
	}

	return p.Publish(ctx, Message{
		Topic:    event.Name(),
		ClientID: clientID,
		Payload:  data,
	})
}

// Subscribe decodes every message on event's topic into a T before calling fn.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], fn func(ctx context.Context, clientID string, payload T) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Name(), err)
		}
		return fn(ctx, msg.ClientID, payload)
	})
}
