package observable

import "sync"

// Property is an observable value. Set notifies subscribers synchronously on
// the calling goroutine; Value may be read from any goroutine.
type Property[T any] struct {
	mu    sync.RWMutex
	value T
	equal func(a, b T) bool

	changed Subject[T]
}

// PropertyOption configures a Property.
type PropertyOption[T any] func(*Property[T])

// WithEqual makes Set a no-op when the new value equals the current one.
func WithEqual[T any](equal func(a, b T) bool) PropertyOption[T] {
	return func(p *Property[T]) {
		p.equal = equal
	}
}

// NewProperty creates a property holding initial.
func NewProperty[T any](initial T, opts ...PropertyOption[T]) *Property[T] {
	p := &Property[T]{value: initial}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewDistinctProperty creates a property that ignores sets of an equal value.
func NewDistinctProperty[T comparable](initial T) *Property[T] {
	return NewProperty(initial, WithEqual(func(a, b T) bool { return a == b }))
}

// Value returns the current value.
func (p *Property[T]) Value() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set stores v and notifies subscribers. It reports whether a notification
// was sent.
func (p *Property[T]) Set(v T) bool {
	p.mu.Lock()
	if p.equal != nil && p.equal(p.value, v) {
		p.mu.Unlock()
		return false
	}
	p.value = v
	p.mu.Unlock()

	p.changed.Emit(v)
	return true
}

// Subscribe registers fn for changes made after the call.
func (p *Property[T]) Subscribe(fn func(T)) Subscription {
	return p.changed.Subscribe(fn)
}

// Const is an Observable that always holds the same value and never changes.
type Const[T any] struct {
	value T
}

// NewConst creates a constant observable.
func NewConst[T any](v T) Const[T] {
	return Const[T]{value: v}
}

// Value implements Observable.
func (c Const[T]) Value() T { return c.value }

// Subscribe implements Observable; a constant never notifies.
func (c Const[T]) Subscribe(func(T)) Subscription { return SubscriptionFunc(nil) }
