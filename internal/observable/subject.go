package observable

import "sync"

// Subscription cancels interest in a Source.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a function to Subscription.
type SubscriptionFunc func()

// Unsubscribe implements Subscription.
func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// Source is a stream of values that can be subscribed to.
type Source[T any] interface {
	Subscribe(fn func(T)) Subscription
}

// Observable is a Source that also exposes its current value.
type Observable[T any] interface {
	Source[T]
	Value() T
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Subject is a hot stream without a current value. Subscribers only see
// values emitted after they subscribed.
type Subject[T any] struct {
	mu   sync.RWMutex
	subs []subscriber[T]
	next uint64
}

// NewSubject creates an empty subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe registers fn for future emissions.
func (s *Subject[T]) Subscribe(fn func(T)) Subscription {
	if fn == nil {
		return SubscriptionFunc(nil)
	}

	s.mu.Lock()
	s.next++
	id := s.next
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { s.remove(id) })
	})
}

// Emit delivers v to every current subscriber in subscription order.
func (s *Subject[T]) Emit(v T) {
	// Copy before notify so subscribers may (un)subscribe while being called.
	s.mu.RLock()
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Len returns the number of active subscribers.
func (s *Subject[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// never is a Source that never emits.
type never[T any] struct{}

func (never[T]) Subscribe(func(T)) Subscription { return SubscriptionFunc(nil) }

// Never returns a Source that never emits.
func Never[T any]() Source[T] {
	return never[T]{}
}
