// Package monitor runs the scheduled sweep over monitored leases and
// reconciles accounts left behind by partial failures.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sandbox-pool/infra/packages/api/internal/accounts"
	"github.com/sandbox-pool/infra/packages/api/internal/leases"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	"github.com/sandbox-pool/infra/packages/shared/pkg/telemetry"
)

var (
	tracer = otel.Tracer("github.com/sandbox-pool/infra/packages/api/internal/monitor")
	meter  = otel.Meter("github.com/sandbox-pool/infra/packages/api/internal/monitor")
)

const sweepLockKey = "lease-sweep"

// SpendSource reports the current total cost of a lease's account.
type SpendSource interface {
	TotalCost(ctx context.Context, lease *leases.Lease) (decimal.Decimal, error)
}

type Leases interface {
	ListMonitored(ctx context.Context) ([]*leases.Lease, error)
	UpdateSpend(ctx context.Context, leaseID string, totalCost decimal.Decimal) (*leases.Lease, error)
	Expire(ctx context.Context, leaseID string) (leases.TerminateResult, error)
	ApplyThresholds(ctx context.Context, leaseID string, now time.Time) (leases.ThresholdOutcome, error)
}

type Accounts interface {
	Get(ctx context.Context, awsAccountID string) (*accounts.Account, error)
	ListAll(ctx context.Context, statuses ...accounts.Status) ([]*accounts.Account, error)
	StartCleanup(ctx context.Context, awsAccountID, reason string) (*accounts.Account, error)
	Freeze(ctx context.Context, awsAccountID string) (*accounts.Account, error)
	ScanDrift(ctx context.Context) (accounts.DriftReport, error)
}

var (
	_ Leases   = (*leases.Registry)(nil)
	_ Accounts = (*accounts.Registry)(nil)
)

type Config struct {
	Interval    time.Duration
	Concurrency int
	// ReconcileGracePeriod is how long an Active or Frozen account without a
	// monitored lease is left alone before it is sent to cleanup. Zero disables reconciliation.
	ReconcileGracePeriod time.Duration
	DriftScan            bool
}

type Sweeper struct {
	leases   Leases
	accounts Accounts
	spend    SpendSource
	locker   Locker
	cfg      Config
	now      func() time.Time

	processed metric.Int64Counter
	actions   metric.Int64Counter
	failures  metric.Int64Counter
}

type Option func(*Sweeper)

func WithSpendSource(spend SpendSource) Option {
	return func(s *Sweeper) {
		s.spend = spend
	}
}

// WithLocker keeps several replicas from sweeping at the same time.
func WithLocker(locker Locker) Option {
	return func(s *Sweeper) {
		s.locker = locker
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func New(leaseRegistry Leases, accountRegistry Accounts, cfg Config, opts ...Option) (*Sweeper, error) {
	s := &Sweeper{
		leases:   leaseRegistry,
		accounts: accountRegistry,
		cfg:      cfg,
		now:      time.Now,
	}

	if s.cfg.Concurrency <= 0 {
		s.cfg.Concurrency = 1
	}

	for _, opt := range opts {
		opt(s)
	}

	var err error

	if s.processed, err = telemetry.GetCounter(meter, telemetry.SweepLeasesProcessedMeterName); err != nil {
		return nil, fmt.Errorf("failed to create processed counter: %w", err)
	}

	if s.actions, err = telemetry.GetCounter(meter, telemetry.SweepActionsMeterName); err != nil {
		return nil, fmt.Errorf("failed to create actions counter: %w", err)
	}

	if s.failures, err = telemetry.GetCounter(meter, telemetry.SweepFailuresMeterName); err != nil {
		return nil, fmt.Errorf("failed to create failures counter: %w", err)
	}

	return s, nil
}

type LeaseFailure struct {
	LeaseID string
	Err     error
}

// Summary is the result of one sweep. A sweep with failures still processed
// every other lease.
type Summary struct {
	Processed int
	Expired   int
	Actions   map[thresholds.Action]int
	// LeaseFailures are leases the sweep could not evaluate.
	LeaseFailures []LeaseFailure
	// AccountFailures are account side effects that did not happen after the lease side committed.
	AccountFailures []LeaseFailure
	Reconciled      []string
	Drift           *accounts.DriftReport
	ReconcileErr    error
	DriftErr        error
}

// Err joins every failure of the sweep, nil when it fully succeeded.
func (s Summary) Err() error {
	errs := make([]error, 0, len(s.LeaseFailures)+len(s.AccountFailures)+2)
	for _, f := range s.LeaseFailures {
		errs = append(errs, fmt.Errorf("lease %s: %w", f.LeaseID, f.Err))
	}

	for _, f := range s.AccountFailures {
		errs = append(errs, fmt.Errorf("lease %s account: %w", f.LeaseID, f.Err))
	}

	errs = append(errs, s.ReconcileErr, s.DriftErr)

	return errors.Join(errs...)
}

type leaseResult struct {
	expired    bool
	action     thresholds.Action
	accountErr error
}

// Sweep evaluates every monitored lease once. It only fails as a whole when
// the monitored leases cannot be listed.
func (s *Sweeper) Sweep(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "sweep-leases")
	defer span.End()

	now := s.now().UTC()
	summary := Summary{Actions: map[thresholds.Action]int{}}

	monitored, err := s.leases.ListMonitored(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list monitored leases: %w", err)
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, lease := range monitored {
		g.Go(func() error {
			leaseID := lease.LeaseID()

			result, err := s.processLease(gctx, lease, now)

			mu.Lock()
			defer mu.Unlock()

			summary.Processed++

			if err != nil {
				summary.LeaseFailures = append(summary.LeaseFailures, LeaseFailure{LeaseID: leaseID, Err: err})
				telemetry.ReportError(gctx, "sweep failed to process lease", err, telemetry.WithLeaseID(leaseID))

				return nil
			}

			if result.expired {
				summary.Expired++
			}

			if result.action != "" {
				summary.Actions[result.action]++
			}

			if result.accountErr != nil {
				summary.AccountFailures = append(summary.AccountFailures, LeaseFailure{LeaseID: leaseID, Err: result.accountErr})
			}

			return nil
		})
	}

	// Workers never return an error.
	_ = g.Wait()

	if s.cfg.ReconcileGracePeriod > 0 {
		summary.Reconciled, summary.ReconcileErr = s.reconcile(ctx, now)
	}

	if s.cfg.DriftScan {
		report, err := s.accounts.ScanDrift(ctx)
		summary.Drift = &report

		if err != nil && !errors.Is(err, accounts.ErrDriftScanDisabled) {
			summary.DriftErr = err
		}
	}

	s.record(ctx, summary)

	return summary, nil
}

func (s *Sweeper) processLease(ctx context.Context, lease *leases.Lease, now time.Time) (leaseResult, error) {
	leaseID := lease.LeaseID()

	if s.spend != nil {
		cost, err := s.spend.TotalCost(ctx, lease)
		if err != nil {
			return leaseResult{}, fmt.Errorf("failed to read spend: %w", err)
		}

		// Spend only grows; a lower reading is a stale source.
		if cost.GreaterThan(lease.TotalCostAccrued) {
			if _, err := s.leases.UpdateSpend(ctx, leaseID, cost); err != nil {
				return leaseResult{}, fmt.Errorf("failed to record spend: %w", err)
			}
		}
	}

	if lease.ExpirationDate != nil && !now.Before(*lease.ExpirationDate) {
		result, err := s.leases.Expire(ctx, leaseID)
		if err != nil {
			return leaseResult{}, fmt.Errorf("failed to expire lease: %w", err)
		}

		return leaseResult{expired: true, accountErr: result.CleanupErr}, nil
	}

	outcome, err := s.leases.ApplyThresholds(ctx, leaseID, now)
	if err != nil {
		return leaseResult{}, fmt.Errorf("failed to apply thresholds: %w", err)
	}

	result := leaseResult{action: outcome.Action, accountErr: outcome.AccountErr}

	if outcome.Action == "" && outcome.Lease != nil && outcome.Lease.Status == leases.StatusFrozen {
		result.accountErr = s.resyncFrozenAccount(ctx, outcome.Lease.AwsAccountID)
	}

	return result, nil
}

// resyncFrozenAccount freezes the account of a Frozen lease whose account
// write was lost. Only an Active account lags; CleanUp and Quarantine are past it.
func (s *Sweeper) resyncFrozenAccount(ctx context.Context, awsAccountID string) error {
	account, err := s.accounts.Get(ctx, awsAccountID)
	if err != nil {
		return fmt.Errorf("failed to read account %s: %w", awsAccountID, err)
	}

	if account.Status != accounts.StatusActive {
		return nil
	}

	if _, err := s.accounts.Freeze(ctx, awsAccountID); err != nil {
		return fmt.Errorf("failed to freeze account %s: %w", awsAccountID, err)
	}

	return nil
}

// reconcile sends Active or Frozen accounts that no monitored lease holds to
// cleanup, once they have been untouched for the grace period.
func (s *Sweeper) reconcile(ctx context.Context, now time.Time) ([]string, error) {
	ctx, span := tracer.Start(ctx, "reconcile-accounts")
	defer span.End()

	reconciled := make([]string, 0)

	inUse, err := s.accounts.ListAll(ctx, accounts.StatusActive, accounts.StatusFrozen)
	if err != nil {
		return reconciled, fmt.Errorf("failed to list accounts in use: %w", err)
	}

	if len(inUse) == 0 {
		return reconciled, nil
	}

	// Listed after the accounts so a lease approved in between is still seen.
	monitored, err := s.leases.ListMonitored(ctx)
	if err != nil {
		return reconciled, fmt.Errorf("failed to list monitored leases: %w", err)
	}

	held := make(map[string]bool, len(monitored))
	for _, lease := range monitored {
		held[lease.AwsAccountID] = true
	}

	var errs []error
	for _, account := range inUse {
		if held[account.AwsAccountID] || now.Sub(account.LastEditTime) < s.cfg.ReconcileGracePeriod {
			continue
		}

		if _, err := s.accounts.StartCleanup(ctx, account.AwsAccountID, "no active lease holds the account"); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", account.AwsAccountID, err))

			continue
		}

		logger.L().Warn(ctx, "reconciled orphaned account", logger.WithAccountID(account.AwsAccountID))
		reconciled = append(reconciled, account.AwsAccountID)
	}

	return reconciled, errors.Join(errs...)
}

func (s *Sweeper) record(ctx context.Context, summary Summary) {
	s.processed.Add(ctx, int64(summary.Processed))
	s.failures.Add(ctx, int64(len(summary.LeaseFailures)))

	if summary.Expired > 0 {
		s.actions.Add(ctx, int64(summary.Expired), metric.WithAttributes(attribute.String("action", "EXPIRE")))
	}

	for action, count := range summary.Actions {
		s.actions.Add(ctx, int64(count), metric.WithAttributes(attribute.String("action", string(action))))
	}

	if len(summary.Reconciled) > 0 {
		s.actions.Add(ctx, int64(len(summary.Reconciled)), metric.WithAttributes(attribute.String("action", "RECONCILE")))
	}
}

// Start sweeps on every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if s.locker != nil {
		release, obtained, err := s.locker.TryLock(ctx, sweepLockKey, s.cfg.Interval)
		if err != nil {
			telemetry.ReportError(ctx, "failed to obtain sweep lock", err)

			return
		}

		if !obtained {
			logger.L().Debug(ctx, "another replica is sweeping, skipping")

			return
		}

		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.L().Warn(ctx, "failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	start := s.now()

	summary, err := s.Sweep(ctx)
	if err != nil {
		telemetry.ReportCriticalError(ctx, "lease sweep failed", err)

		return
	}

	fields := []zap.Field{
		zap.Int("processed", summary.Processed),
		zap.Int("expired", summary.Expired),
		zap.Int("failed", len(summary.LeaseFailures)),
		zap.Int("reconciled", len(summary.Reconciled)),
		zap.Duration("took", s.now().Sub(start)),
	}

	if err := summary.Err(); err != nil {
		logger.L().Warn(ctx, "lease sweep finished with failures", append(fields, zap.Error(err))...)

		return
	}

	logger.L().Info(ctx, "lease sweep finished", fields...)
}
