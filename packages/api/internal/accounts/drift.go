package accounts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
)

var ErrDriftScanDisabled = errors.New("drift scan is not configured")

// Placement reports where an account currently sits in the organization.
type Placement interface {
	CurrentOU(ctx context.Context, awsAccountID string) (string, error)
}

type DriftReport struct {
	Scanned int      `json:"scanned"`
	Drifted []string `json:"drifted"`
	Cleared []string `json:"cleared"`
}

// ScanDrift compares every account's actual organizational unit with the one
// expected for its status. Drifted accounts are flagged and quarantined.
// Failures on one account do not stop the scan; they are joined into the error.
func (r *Registry) ScanDrift(ctx context.Context) (DriftReport, error) {
	ctx, span := tracer.Start(ctx, "scan-account-drift")
	defer span.End()

	report := DriftReport{Drifted: []string{}, Cleared: []string{}}

	if r.placement == nil {
		return report, ErrDriftScanDisabled
	}

	accounts, err := r.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list accounts: %w", err)
	}

	var errs []error
	for _, account := range accounts {
		report.Scanned++

		drifted, cleared, err := r.checkDrift(ctx, account)
		if err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", account.AwsAccountID, err))

			continue
		}

		if drifted {
			report.Drifted = append(report.Drifted, account.AwsAccountID)
		}

		if cleared {
			report.Cleared = append(report.Cleared, account.AwsAccountID)
		}
	}

	return report, errors.Join(errs...)
}

func (r *Registry) checkDrift(ctx context.Context, account *Account) (drifted, cleared bool, err error) {
	expected, ok := r.expectedOUs[account.Status]
	if !ok {
		return false, false, nil
	}

	actual, err := r.placement.CurrentOU(ctx, account.AwsAccountID)
	if err != nil {
		return false, false, fmt.Errorf("failed to read placement: %w", err)
	}

	if actual == expected {
		if !account.DriftAtLastScan {
			return false, false, nil
		}

		_, changed, err := r.UpdateWithRetry(ctx, account.AwsAccountID, func(current *Account) (*Account, error) {
			if !current.DriftAtLastScan {
				return nil, nil
			}

			next := current.clone()
			next.DriftAtLastScan = false

			return next, nil
		})

		return false, changed, err
	}

	logger.L().Warn(ctx, "account placement drifted",
		logger.WithAccountID(account.AwsAccountID),
		zap.String("ou.expected", expected),
		zap.String("ou.actual", actual),
	)

	reason := fmt.Sprintf("placement drift: expected %s, found %s", expected, actual)

	_, changed, err := r.UpdateWithRetry(ctx, account.AwsAccountID, func(current *Account) (*Account, error) {
		if current.Status != account.Status {
			// Moved since the listing, the next scan compares against the new status.
			return nil, nil
		}

		if current.Status == StatusQuarantine {
			if current.DriftAtLastScan {
				return nil, nil
			}

			next := current.clone()
			next.DriftAtLastScan = true

			return next, nil
		}

		return r.prepare(current, StatusQuarantine, func(a *Account) {
			a.DriftAtLastScan = true
			a.QuarantineReason = reason
		})
	})
	if err != nil {
		return false, false, err
	}

	if changed {
		details := []events.Detail{events.AccountDriftDetected{AwsAccountID: account.AwsAccountID, ExpectedOU: expected, ActualOU: actual}}
		if account.Status != StatusQuarantine {
			details = append(details, events.AccountQuarantined{AwsAccountID: account.AwsAccountID, Reason: reason})
		}

		r.publish(ctx, details...)
	}

	return changed, false, nil
}
