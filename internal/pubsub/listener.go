package pubsub

import "context"

// Receive blocks until the next event arrives on ch, the context is
// cancelled, or the channel closes. The second return is false when no
// event was received.
func Receive[T any](ctx context.Context, ch <-chan Event[T]) (Event[T], bool) {
	select {
	case <-ctx.Done():
		var zero Event[T]
		return zero, false
	case event, ok := <-ch:
		if !ok {
			var zero Event[T]
			return zero, false
		}
		return event, true
	}
}

// ContinuousListener wraps a broker subscription for callers that consume
// events in a loop.
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

// Next blocks until the next event or cancellation.
func (l *ContinuousListener[T]) Next() (Event[T], bool) {
	return Receive(l.ctx, l.ch)
}
