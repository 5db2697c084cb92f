package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// frameworkPrefixes are the namespaces reserved for engine topics.
var frameworkPrefixes = []string{"routing.", "hash.", "ws.", "server."}

// IsFrameworkName reports whether name lives in a reserved namespace.
func IsFrameworkName(name string) bool {
	for _, prefix := range frameworkPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Validator checks topic definitions before registration.
type Validator struct {
	namePattern   *regexp.Regexp
	modulePattern *regexp.Regexp
}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{
		// Hierarchical lowercase names: routing.state.changed, items.filter.updated
		namePattern:   regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`),
		modulePattern: regexp.MustCompile(`^[a-z][a-z0-9_]*$`),
	}
}

// ValidateDefinition checks name, description, pattern and scope rules.
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}
	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}
	if strings.TrimSpace(topic.Pattern()) == "" {
		return fmt.Errorf("topic pattern cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if topic.Module() != "" {
			return fmt.Errorf("framework topics should not have a module")
		}
		if IsFrameworkName(topic.Name()) {
			return nil
		}
		return fmt.Errorf("framework topic must start with one of %v", frameworkPrefixes)
	case ScopeModule:
		if !v.modulePattern.MatchString(topic.Module()) {
			return fmt.Errorf("module name must be lowercase alphanumeric with underscores")
		}
		return nil
	default:
		return fmt.Errorf("invalid topic scope: %s", topic.Scope())
	}
}

// ValidateName checks a topic name against the naming convention.
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}
	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("name must be lowercase, dot separated segments")
	}
	return nil
}
