// Package live provides push-based observable values.
//
// A Subject holds the latest value of some query and hands it to every
// subscriber. Delivery is conflating: each subscriber has a single slot, so a
// reader that falls behind skips intermediate values and always receives the
// newest one. This matches how a UI consumes state: only the current
// snapshot matters.
package live

import (
	"context"
	"sync"
)

// Subject is a replaying, conflating broadcast of values of type T.
// The zero value is not usable; call NewSubject.
type Subject[T any] struct {
	mu       sync.Mutex
	value    T
	hasValue bool
	subs     map[uint64]chan T
	nextID   uint64
	closed   bool
}

// NewSubject creates an empty subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{
		subs: make(map[uint64]chan T),
	}
}

// Publish stores v as the current value and delivers it to all subscribers.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.value = v
	s.hasValue = true

	for _, ch := range s.subs {
		offer(ch, v)
	}
}

// Subscribe returns a channel that receives the current value (if one has
// been published) followed by every later value. The channel is closed when
// ctx is done or the subject is closed.
func (s *Subject[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	if s.hasValue {
		ch <- s.value
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.unsubscribe(id)
	}()

	return ch
}

// Value returns the current value and whether one was ever published.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.hasValue
}

// Subscribers returns the number of active subscriptions.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close ends all subscriptions. Later Publish calls are ignored and later
// subscriptions receive an already closed channel.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Subject[T]) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

// offer puts v into a one-slot channel, replacing a value the reader has
// not taken yet.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- v:
	default:
	}
}
