package utils

import (
	"context"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/pkg/errors"
)

type RetryConfig struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// RetryWhen runs fn until it succeeds, the attempts run out or fn returns an
// error for which retryable is false. The error fn returned last is handed
// back unchanged so callers can still match on it.
func RetryWhen(ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := max(cfg.Attempts, 1)

	var last error

	retrier := retry.NewRetrier(attempts, cfg.InitialDelay, cfg.MaxDelay)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		last = fn(ctx)
		if last == nil || retryable(last) {
			return last
		}

		return retry.Stop(errors.WithStack(last))
	})
	if err == nil {
		return nil
	}

	if last != nil {
		return last
	}

	return errors.Wrap(err, "retry interrupted before the first attempt finished")
}
