// Package consumer applies account cleanup results read from the inbound
// cleanup stream.
package consumer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/api/internal/accounts"
	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	sharedevents "github.com/sandbox-pool/infra/packages/shared/pkg/events"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	"github.com/sandbox-pool/infra/packages/shared/pkg/telemetry"
)

var tracer = otel.Tracer("github.com/sandbox-pool/infra/packages/api/internal/consumer")

const (
	defaultBatchSize = 16
	defaultBlock     = 5 * time.Second
	errorBackoff     = time.Second
)

// Stream is a consumer group on a redis stream.
type Stream interface {
	EnsureGroup(ctx context.Context) error
	Read(ctx context.Context, count int64, block time.Duration) ([]sharedevents.Message, error)
	ReadPending(ctx context.Context, count int64) ([]sharedevents.Message, error)
	Ack(ctx context.Context, ids ...string) error
}

type CleanupRecorder interface {
	CompleteCleanup(ctx context.Context, awsAccountID string, result accounts.CleanupResult) (*accounts.Account, error)
}

var (
	_ Stream          = (*sharedevents.RedisStreamsDelivery[events.Event])(nil)
	_ CleanupRecorder = (*accounts.Registry)(nil)
)

type CleanupResults struct {
	stream    Stream
	accounts  CleanupRecorder
	batchSize int64
	block     time.Duration
}

type Option func(*CleanupResults)

func WithBlock(block time.Duration) Option {
	return func(c *CleanupResults) {
		c.block = block
	}
}

func NewCleanupResults(stream Stream, recorder CleanupRecorder, opts ...Option) *CleanupResults {
	c := &CleanupResults{
		stream:    stream,
		accounts:  recorder,
		batchSize: defaultBatchSize,
		block:     defaultBlock,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start consumes until ctx is done. Only a failure to create the group is returned.
func (c *CleanupResults) Start(ctx context.Context) error {
	if err := c.stream.EnsureGroup(ctx); err != nil {
		return err
	}

	for ctx.Err() == nil {
		if _, err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}

			telemetry.ReportError(ctx, "failed to poll cleanup results", err)

			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
		}
	}

	return nil
}

// Poll retries this consumer's pending messages, then handles one batch of
// new ones. It returns how many messages were acknowledged.
func (c *CleanupResults) Poll(ctx context.Context) (int, error) {
	pending, err := c.stream.ReadPending(ctx, c.batchSize)
	if err != nil {
		return 0, err
	}

	acked, err := c.handleBatch(ctx, pending)
	if err != nil {
		return acked, err
	}

	fresh, err := c.stream.Read(ctx, c.batchSize, c.block)
	if err != nil {
		return acked, err
	}

	more, err := c.handleBatch(ctx, fresh)

	return acked + more, err
}

func (c *CleanupResults) handleBatch(ctx context.Context, messages []sharedevents.Message) (int, error) {
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		if c.handle(ctx, msg) {
			ids = append(ids, msg.ID)
		}
	}

	if len(ids) == 0 {
		return 0, nil
	}

	if err := c.stream.Ack(ctx, ids...); err != nil {
		return 0, fmt.Errorf("failed to ack cleanup results: %w", err)
	}

	return len(ids), nil
}

// handle reports whether the message is done with. Transient failures leave
// it pending for the next poll.
func (c *CleanupResults) handle(ctx context.Context, msg sharedevents.Message) bool {
	ctx, span := tracer.Start(ctx, "handle-cleanup-result")
	defer span.End()

	event, err := events.ParseEvent(msg.Payload)
	if err != nil {
		telemetry.ReportError(ctx, "dropping malformed cleanup result", err, attribute.String("stream.message_id", msg.ID))

		return true
	}

	var (
		awsAccountID string
		result       accounts.CleanupResult
	)

	switch detail := event.Detail.(type) {
	case events.AccountCleanupSucceeded:
		awsAccountID = detail.AwsAccountID
		result = accounts.CleanupResult{Succeeded: true}
	case events.AccountCleanupFailed:
		awsAccountID = detail.AwsAccountID
		result = accounts.CleanupResult{Message: detail.Error}
	default:
		logger.L().Debug(ctx, "ignoring event on cleanup stream", zap.String("detail_type", string(event.DetailType)))

		return true
	}

	account, err := c.accounts.CompleteCleanup(ctx, awsAccountID, result)
	switch {
	case err == nil:
		logger.L().Info(ctx, "cleanup result applied",
			logger.WithAccountID(awsAccountID),
			zap.Bool("succeeded", result.Succeeded),
			zap.String("account.status", string(account.Status)),
		)

		return true
	case permanent(err):
		telemetry.ReportError(ctx, "dropping cleanup result that cannot apply", err, telemetry.WithAccountID(awsAccountID))

		return true
	default:
		telemetry.ReportError(ctx, "failed to apply cleanup result, will retry", err, telemetry.WithAccountID(awsAccountID))

		return false
	}
}

// permanent errors come out the same on every retry.
func permanent(err error) bool {
	return lifecycle.IsInvalidTransition(err) ||
		lifecycle.IsValidation(err) ||
		store.IsNotFound(err) ||
		store.IsSchemaMismatch(err)
}
