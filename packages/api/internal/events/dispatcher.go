package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedevents "github.com/sandbox-pool/infra/packages/shared/pkg/events"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

// Publisher is what registries depend on. Publish must only be called after
// the write that produced the details has been committed.
type Publisher interface {
	Publish(ctx context.Context, details ...Detail) error
}

type Dispatcher struct {
	delivery sharedevents.Delivery[Event]
	retry    utils.RetryConfig
	now      func() time.Time
}

var _ Publisher = (*Dispatcher)(nil)

type DispatcherOption func(*Dispatcher)

func WithRetry(cfg utils.RetryConfig) DispatcherOption {
	return func(d *Dispatcher) {
		d.retry = cfg
	}
}

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(delivery sharedevents.Delivery[Event], opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		delivery: delivery,
		retry: utils.RetryConfig{
			Attempts:     5,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Publish delivers one event per detail. Every detail is attempted even when
// an earlier one fails; the failures are joined.
func (d *Dispatcher) Publish(ctx context.Context, details ...Detail) error {
	var errs []error

	for _, detail := range details {
		if err := detail.Validate(); err != nil {
			errs = append(errs, &ValidationError{DetailType: detail.DetailType(), Reason: err.Error()})

			continue
		}

		event := Event{
			ID:         uuid.New(),
			Time:       d.now().UTC(),
			DetailType: detail.DetailType(),
			Detail:     detail,
		}

		err := utils.RetryWhen(ctx, d.retry, func(error) bool { return ctx.Err() == nil }, func(ctx context.Context) error {
			return d.delivery.Publish(ctx, detail.SubjectKey(), event)
		})
		if err != nil {
			logger.L().Error(ctx, "failed to publish event",
				logger.WithEventType(string(event.DetailType)),
				zap.String("event.subject", detail.SubjectKey()),
				zap.Error(err),
			)

			errs = append(errs, fmt.Errorf("failed to publish %s: %w", event.DetailType, err))

			continue
		}

		logger.L().Debug(ctx, "published event",
			logger.WithEventType(string(event.DetailType)),
			zap.String("event.id", event.ID.String()),
			zap.String("event.subject", detail.SubjectKey()),
		)
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) Close(ctx context.Context) error {
	return d.delivery.Close(ctx)
}
