// Package observer fans notifications out to a set of registered observers.
package observer

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Observer receives notifications of type T.
type Observer[T any] interface {
	Notify(context.Context, T) error
}

// Func adapts a plain function into an Observer.
type Func[T any] func(context.Context, T) error

// Notify calls f. A nil Func is a no-op.
func (f Func[T]) Notify(ctx context.Context, evt T) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

// Subject notifies its observers in registration order. It is safe for concurrent use.
type Subject[T any] struct {
	observers []named[T]
	mu        sync.RWMutex
}

type named[T any] struct {
	obs  Observer[T]
	name string
}

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Attach registers obs under name. The name only labels errors.
func (s *Subject[T]) Attach(name string, obs Observer[T]) {
	if s == nil || obs == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, named[T]{name: name, obs: obs})
	s.mu.Unlock()
}

// Len is the number of registered observers.
func (s *Subject[T]) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// Publish notifies every observer, even after one fails, and joins their errors.
func (s *Subject[T]) Publish(ctx context.Context, evt T) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	observers := append([]named[T](nil), s.observers...)
	s.mu.RUnlock()

	var errs []error
	for _, o := range observers {
		if err := o.obs.Notify(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.name, err))
		}
	}
	return errors.Join(errs...)
}
