package topicmgr

import (
	"fmt"
	"strings"
	"sync"
)

// Manager validates and registers topics.
type Manager struct {
	registry  *Registry
	validator *Validator
}

// NewManager creates a manager with an empty registry.
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// Register validates topic and adds it to the registry.
func (m *Manager) Register(topic Topic) error {
	if err := m.validator.ValidateDefinition(topic); err != nil {
		name, module := "", ""
		if topic != nil {
			name, module = topic.Name(), topic.Module()
		}
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   name,
			Module:  module,
			Message: "topic validation failed",
			Cause:   err,
		}
	}
	return m.registry.Register(topic)
}

// MustRegister registers a topic and panics on error (for static initialization)
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name.
func (m *Manager) Get(name string) (Topic, bool) {
	return m.registry.Get(name)
}

// Lookup retrieves a topic or returns a not-found TopicError.
func (m *Manager) Lookup(name string) (Topic, error) {
	topic, ok := m.registry.Get(name)
	if !ok {
		return nil, &TopicError{
			Type:    ErrorTopicNotFound,
			Topic:   name,
			Message: fmt.Sprintf("topic not found: %s", name),
		}
	}
	return topic, nil
}

// List returns every registered topic sorted by name.
func (m *Manager) List() []Topic { return m.registry.List() }

// ListByModule returns the topics of one module.
func (m *Manager) ListByModule(module string) []Topic { return m.registry.ListByModule(module) }

// ListByScope returns the topics of one scope.
func (m *Manager) ListByScope(scope TopicScope) []Topic { return m.registry.ListByScope(scope) }

// FindTopics returns topics matching pattern, where a trailing "*" matches
// any suffix and "*" alone matches everything.
func (m *Manager) FindTopics(pattern string) []Topic {
	var matches []Topic
	for _, topic := range m.registry.List() {
		if matchesPattern(topic.Name(), pattern) {
			matches = append(matches, topic)
		}
	}
	return matches
}

// Count returns the number of registered topics.
func (m *Manager) Count() int { return m.registry.Count() }

// Reset removes all registered topics (primarily for testing)
func (m *Manager) Reset() { m.registry.Reset() }

func matchesPattern(name, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return name == pattern
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager that package-level topic
// definitions register with.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
