// Package pubsub provides a generic in-process publish/subscribe broker.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened. Each broker's publishers define their own
// vocabulary: the logger tags entries, the discovery orchestrator tags
// events with the run stage that fired them.
type EventType string

// Event is a published event carrying a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
