package pubsub

import "context"

// ContinuousListener wraps a broker subscription for callers that consume
// events in a loop rather than through a channel select.
type ContinuousListener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewContinuousListener creates a new listener that subscribes to the broker.
// The subscription is automatically cleaned up when the context is cancelled.
func NewContinuousListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx),
	}
}

// Next blocks until the next event arrives.
// The second return is false when the context is cancelled or the
// subscription is closed.
func (l *ContinuousListener[T]) Next() (Event[T], bool) {
	select {
	case <-l.ctx.Done():
		var zero Event[T]
		return zero, false
	case event, ok := <-l.ch:
		return event, ok
	}
}

// C exposes the underlying event channel for select-based consumers.
func (l *ContinuousListener[T]) C() <-chan Event[T] {
	return l.ch
}
