package websocket

import (
	"errors"
	"slices"
	"sync"
)

var (
	// ErrTypeAlreadyExists is returned when adding a duplicate message type.
	ErrTypeAlreadyExists = errors.New("message type already exists in whitelist")
	// ErrInvalidType is returned when an empty type is provided.
	ErrInvalidType = errors.New("message type cannot be empty")
)

// typeWhitelist holds the message types a tab is allowed to send.
type typeWhitelist struct {
	mu      sync.RWMutex
	allowed []string
}

// newTypeWhitelist creates a whitelist, skipping empty types.
func newTypeWhitelist(types ...string) *typeWhitelist {
	valid := make([]string, 0, len(types))
	for _, t := range types {
		if t != "" {
			valid = append(valid, t)
		}
	}
	return &typeWhitelist{allowed: valid}
}

// defaultTypeWhitelist allows the session handshake and hash reports.
func defaultTypeWhitelist() *typeWhitelist {
	return newTypeWhitelist(TypeHello, TypeHashChange)
}

// IsAllowed reports whether msgType may be sent by a tab.
func (w *typeWhitelist) IsAllowed(msgType string) bool {
	if msgType == "" {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Contains(w.allowed, msgType)
}

// Add allows another message type.
func (w *typeWhitelist) Add(msgType string) error {
	if msgType == "" {
		return ErrInvalidType
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if slices.Contains(w.allowed, msgType) {
		return ErrTypeAlreadyExists
	}
	w.allowed = append(w.allowed, msgType)
	return nil
}
