package events

import (
	"context"
)

// Delivery publishes payloads to downstream consumers. Implementations
// deliver at least once: a payload may be observed more than once, so
// consumers must tolerate duplicates.
type Delivery[Payload any] interface {
	Publish(ctx context.Context, deliveryKey string, payload Payload) error
	Close(ctx context.Context) error
}
