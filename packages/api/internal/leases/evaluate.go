package leases

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
)

// ThresholdOutcome is what one ApplyThresholds pass did.
type ThresholdOutcome struct {
	Lease *Lease
	// Action is the most severe action applied, empty when nothing fired.
	Action thresholds.Action
	Fired  []thresholds.Crossed
	// AccountErr is set when the lease side committed but the account side effect failed.
	AccountErr error
}

// ApplyThresholds evaluates the lease's budget and duration thresholds at now.
// Newly crossed thresholds are marked in the same write that applies their
// action, so a retried pass never fires them twice. Reaching MaxSpend reclaims
// the lease even without a matching threshold.
func (r *Registry) ApplyThresholds(ctx context.Context, leaseID string, now time.Time) (ThresholdOutcome, error) {
	ctx, span := tracer.Start(ctx, "apply-lease-thresholds")
	defer span.End()

	now = now.UTC()

	var (
		before     *Lease
		resolution thresholds.Resolution
		reclaim    string
		wrote      bool
	)

	lease, err := r.update(ctx, leaseID, func(current *Lease) (*Lease, error) {
		before, resolution, reclaim, wrote = current, thresholds.Resolution{}, "", false

		if !current.Status.Monitored() {
			return nil, nil
		}

		budget := thresholds.EvaluateBudget(current.BudgetThresholds, current.TotalCostAccrued)

		var duration []thresholds.Crossed
		if current.ExpirationDate != nil {
			duration = thresholds.EvaluateDuration(current.DurationThresholds, current.ExpirationDate.Sub(now).Hours())
		}

		resolution = thresholds.Resolve(budget, duration)
		overMaxSpend := current.MaxSpend != nil && current.TotalCostAccrued.GreaterThanOrEqual(*current.MaxSpend)

		if !resolution.Fired() && !overMaxSpend {
			return nil, nil
		}

		next := current.clone()
		next.BudgetThresholds = thresholds.MarkBudget(current.BudgetThresholds, resolution.Triggered)
		next.DurationThresholds = thresholds.MarkDuration(current.DurationThresholds, resolution.Triggered)
		next.LastCheckedDate = &now

		switch {
		case resolution.Effective == thresholds.ActionReclaim:
			reclaim = ReasonBudgetExceeded
			if resolution.Reported[0].Kind == thresholds.KindDuration {
				reclaim = ReasonLeaseExpired
			}

			next = ended(next, StatusTerminated, reclaim, now)
		case overMaxSpend:
			reclaim = ReasonBudgetExceeded
			next = ended(next, StatusTerminated, reclaim, now)
		case resolution.Effective == thresholds.ActionFreeze && current.Status == StatusActive:
			next.Status = StatusFrozen
		}

		wrote = true

		return next, nil
	})
	if err != nil {
		return ThresholdOutcome{}, err
	}

	outcome := ThresholdOutcome{Lease: lease}
	if !wrote {
		return outcome, nil
	}

	outcome.Fired = resolution.Triggered
	outcome.Action = resolution.Effective
	if reclaim != "" {
		outcome.Action = thresholds.ActionReclaim
	}

	logger.L().Info(ctx, "lease thresholds applied",
		logger.WithLeaseID(leaseID),
		zap.String("action", string(outcome.Action)),
		zap.Int("fired", len(outcome.Fired)),
	)

	switch {
	case reclaim != "":
		r.publish(ctx, reclaimEvent(before, lease, resolution, reclaim), events.LeaseTerminated{Lease: lease.detail(), Reason: reclaim})
		r.releaseSlot(ctx, lease)
		outcome.AccountErr = r.cleanupAccount(ctx, lease, reclaim)
	default:
		details := alertEvents(lease, resolution.Reported)

		frozen := before.Status == StatusActive && lease.Status == StatusFrozen
		if frozen {
			details = append(details, events.LeaseFrozen{Lease: lease.detail(), Reason: "threshold reached"})
		}

		r.publish(ctx, details...)

		if frozen {
			outcome.AccountErr = r.freezeAccount(ctx, lease)
		}
	}

	return outcome, nil
}

func reclaimEvent(before, lease *Lease, resolution thresholds.Resolution, reason string) events.Detail {
	if reason == ReasonLeaseExpired {
		c := resolution.Reported[0]

		return events.LeaseExpiredAlert{Lease: lease.detail(), HoursRemaining: before.DurationThresholds[c.Index].HoursRemaining}
	}

	threshold := decimal.Zero
	if lease.MaxSpend != nil {
		threshold = *lease.MaxSpend
	}

	if resolution.Effective == thresholds.ActionReclaim {
		threshold = before.BudgetThresholds[resolution.Reported[0].Index].DollarsSpent
	}

	return events.LeaseBudgetExceeded{Lease: lease.detail(), Threshold: threshold, MaxSpend: lease.MaxSpend}
}

func alertEvents(lease *Lease, reported []thresholds.Crossed) []events.Detail {
	details := make([]events.Detail, 0, len(reported))
	for _, c := range reported {
		switch c.Kind {
		case thresholds.KindBudget:
			details = append(details, events.LeaseBudgetThresholdAlert{
				Lease:        lease.detail(),
				DollarsSpent: lease.BudgetThresholds[c.Index].DollarsSpent,
				Action:       string(c.Action),
			})
		case thresholds.KindDuration:
			details = append(details, events.LeaseDurationThresholdAlert{
				Lease:          lease.detail(),
				HoursRemaining: lease.DurationThresholds[c.Index].HoursRemaining,
				Action:         string(c.Action),
			})
		}
	}

	return details
}
