// Package pubsub publishes reservation lifecycle events for downstream
// consumers (notification workers, cache invalidation). Delivery is
// best-effort; the engine never fails an operation on a publish error.
package pubsub

import "context"

// Publisher emits a keyed event payload. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// Nop discards all events. Used in tests and when no broker is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, key string, payload any) error { return nil }
func (Nop) Close() error                                               { return nil }
