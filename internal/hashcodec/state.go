package hashcodec

import (
	"maps"
	"strconv"
)

// State is the flat key/value routing state carried in a hash's query string.
type State map[string]string

// Clone returns a copy of s. A nil State clones to an empty one.
func (s State) Clone() State {
	out := make(State, len(s))
	maps.Copy(out, s)
	return out
}

// Equal reports whether s and other hold the same keys and values. Nil and
// empty states are equal.
func (s State) Equal(other State) bool {
	return maps.Equal(s, other)
}

// Get returns the value stored under key, or "" when absent.
func (s State) Get(key string) string {
	return s[key]
}

// With returns a copy of s with key set to value.
func (s State) With(key, value string) State {
	out := s.Clone()
	out[key] = value
	return out
}

// Int parses the value under key as an int.
func (s State) Int(key string) (int, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool parses the value under key as a bool.
func (s State) Bool(key string) (bool, bool) {
	v, ok := s[key]
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
