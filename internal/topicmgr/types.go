package topicmgr

import "time"

// Topic is a named channel on the event bus.
type Topic interface {
	Name() string
	// Module returns the owning module; empty for framework topics.
	Module() string
	Description() string
	Pattern() string
	Example() string
	Metadata() map[string]interface{}
	Scope() TopicScope
}

// TopicScope separates engine topics from application topics.
type TopicScope string

const (
	ScopeFramework TopicScope = "framework"
	ScopeModule    TopicScope = "module"
)

// TopicConfig describes a topic to define.
type TopicConfig struct {
	Name        string                 `json:"name"`
	Module      string                 `json:"module"`
	Scope       TopicScope             `json:"scope"`
	Description string                 `json:"description"`
	Pattern     string                 `json:"pattern"`
	Example     string                 `json:"example"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// TypedTopic is the Topic implementation returned by the Define functions.
type TypedTopic struct {
	config TopicConfig
}

var _ Topic = (*TypedTopic)(nil)

// DefineFramework defines a topic owned by the routing engine.
func DefineFramework(config TopicConfig) Topic {
	config.Scope = ScopeFramework
	config.Module = ""
	return &TypedTopic{config: config}
}

// DefineModule defines a topic owned by an application module.
func DefineModule(config TopicConfig) Topic {
	config.Scope = ScopeModule
	return &TypedTopic{config: config}
}

// Define defines a framework topic when the name carries a reserved prefix
// and a module topic otherwise.
func Define(config TopicConfig) Topic {
	if IsFrameworkName(config.Name) {
		return DefineFramework(config)
	}
	return DefineModule(config)
}

func (t *TypedTopic) Name() string        { return t.config.Name }
func (t *TypedTopic) Module() string      { return t.config.Module }
func (t *TypedTopic) Description() string { return t.config.Description }
func (t *TypedTopic) Pattern() string     { return t.config.Pattern }
func (t *TypedTopic) Example() string     { return t.config.Example }
func (t *TypedTopic) Scope() TopicScope   { return t.config.Scope }
func (t *TypedTopic) String() string      { return t.config.Name }

// Metadata returns a copy of the topic metadata.
func (t *TypedTopic) Metadata() map[string]interface{} {
	result := make(map[string]interface{}, len(t.config.Metadata))
	for k, v := range t.config.Metadata {
		result[k] = v
	}
	return result
}

// RegistryEntry records when a topic was registered.
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ErrorType classifies a TopicError.
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// TopicError is returned by registry operations.
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}
