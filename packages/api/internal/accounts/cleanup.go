package accounts

import (
	"context"

	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
)

// StartCleanup moves an Active or Frozen account to CleanUp and asks the
// cleanup orchestration to wipe it. An account already in CleanUp is left alone.
func (r *Registry) StartCleanup(ctx context.Context, awsAccountID, reason string) (*Account, error) {
	ctx, span := tracer.Start(ctx, "start-account-cleanup")
	defer span.End()

	account, changed, err := r.transitionWithRetry(ctx, awsAccountID, StatusCleanUp, nil)
	if err != nil {
		return nil, err
	}

	if changed {
		r.publish(ctx, events.CleanAccountRequest{AwsAccountID: awsAccountID, Reason: reason})
	}

	return account, nil
}

// RetryCleanup sends a quarantined account through cleanup again.
func (r *Registry) RetryCleanup(ctx context.Context, awsAccountID string) (*Account, error) {
	account, _, err := r.UpdateWithRetry(ctx, awsAccountID, func(current *Account) (*Account, error) {
		if current.Status != StatusQuarantine {
			return nil, &lifecycle.InvalidTransitionError{Kind: "account", ID: awsAccountID, From: string(current.Status), To: string(StatusCleanUp)}
		}

		return r.prepare(current, StatusCleanUp, func(a *Account) {
			a.DriftAtLastScan = false
		})
	})
	if err != nil {
		return nil, err
	}

	r.publish(ctx, events.CleanAccountRequest{AwsAccountID: awsAccountID, Reason: "retry after quarantine"})

	return account, nil
}

type CleanupResult struct {
	// ExecutionArn, when set, must match the running cleanup.
	ExecutionArn string `json:"executionArn,omitempty"`
	Succeeded    bool   `json:"succeeded"`
	Message      string `json:"message,omitempty"`
}

type cleanupOutcome int

const (
	cleanupRepeat cleanupOutcome = iota
	cleanupFinished
	cleanupAborted
)

// CompleteCleanup records one cleanup run. The account returns to Available
// after the configured number of successful runs, and is quarantined after the
// configured number of failures. Otherwise another run is requested.
func (r *Registry) CompleteCleanup(ctx context.Context, awsAccountID string, result CleanupResult) (*Account, error) {
	ctx, span := tracer.Start(ctx, "complete-account-cleanup")
	defer span.End()

	cfg, err := r.config.Get(ctx)
	if err != nil {
		return nil, err
	}

	successesToFinish := max(cfg.CleanupNumSuccessfulAttemptsToFinish, 1)
	failuresToAbort := max(cfg.CleanupNumFailedAttemptsToAbort, 1)

	var outcome cleanupOutcome

	account, _, err := r.UpdateWithRetry(ctx, awsAccountID, func(current *Account) (*Account, error) {
		if current.Status != StatusCleanUp {
			return nil, &lifecycle.InvalidTransitionError{Kind: "account", ID: awsAccountID, From: string(current.Status), To: "CleanupCompleted"}
		}

		if result.ExecutionArn != "" && result.ExecutionArn != current.CleanupExecutionContext.ExecutionArn {
			return nil, lifecycle.Invalid("executionArn", "%q is not the running cleanup", result.ExecutionArn)
		}

		progress := *current.CleanupExecutionContext
		if result.Succeeded {
			progress.SucceededAttempts++
		} else {
			progress.FailedAttempts++
			progress.LastFailureMessage = result.Message
		}

		switch {
		case progress.SucceededAttempts >= successesToFinish:
			outcome = cleanupFinished

			return r.prepare(current, StatusAvailable, nil)
		case progress.FailedAttempts >= failuresToAbort:
			outcome = cleanupAborted

			return r.prepare(current, StatusQuarantine, func(a *Account) {
				a.QuarantineReason = "cleanup failed: " + progress.LastFailureMessage
			})
		default:
			outcome = cleanupRepeat

			next := current.clone()
			progress.ExecutionArn = newExecutionArn(awsAccountID)
			progress.StartTime = r.now().UTC()
			next.CleanupExecutionContext = &progress

			return next, nil
		}
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info(ctx, "cleanup run recorded",
		logger.WithAccountID(awsAccountID),
		zap.Bool("cleanup.succeeded", result.Succeeded),
		zap.String("account.status", string(account.Status)),
	)

	switch outcome {
	case cleanupFinished:
		r.publish(ctx, events.AccountCleanupSucceeded{AwsAccountID: awsAccountID})
	case cleanupAborted:
		r.publish(ctx,
			events.AccountCleanupFailed{AwsAccountID: awsAccountID, Error: result.Message},
			events.AccountQuarantined{AwsAccountID: awsAccountID, Reason: account.QuarantineReason},
		)
	case cleanupRepeat:
		r.publish(ctx, events.CleanAccountRequest{AwsAccountID: awsAccountID, Reason: "cleanup attempt recorded, another run required"})
	}

	return account, nil
}
