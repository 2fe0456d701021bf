// Package accounts owns the pool's sandbox account records and enforces the
// account state machine.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	"github.com/sandbox-pool/infra/packages/shared/pkg/telemetry"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

var (
	tracer = otel.Tracer("github.com/sandbox-pool/infra/packages/api/internal/accounts")
	meter  = otel.Meter("github.com/sandbox-pool/infra/packages/api/internal/accounts")
)

// ErrNoCapacity means no Available account could be claimed.
var ErrNoCapacity = errors.New("no available account in the pool")

const (
	defaultClaimAttempts = 3
	claimCandidates      = 25
)

type Registry struct {
	table     *store.Table[*Account]
	publisher events.Publisher
	config    globalconfig.Provider

	claimAttempts  int
	conflictRetry  utils.RetryConfig
	now            func() time.Time
	claimConflicts metric.Int64Counter

	placement   Placement
	expectedOUs map[Status]string
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func WithClaimAttempts(attempts int) Option {
	return func(r *Registry) {
		r.claimAttempts = attempts
	}
}

func WithConflictRetry(cfg utils.RetryConfig) Option {
	return func(r *Registry) {
		r.conflictRetry = cfg
	}
}

// WithPlacement enables drift scans. expectedOUs maps every status to the
// organizational unit an account in that status should sit in.
func WithPlacement(placement Placement, expectedOUs map[Status]string) Option {
	return func(r *Registry) {
		r.placement = placement
		r.expectedOUs = expectedOUs
	}
}

func NewRegistry(backend store.Backend, publisher events.Publisher, config globalconfig.Provider, opts ...Option) (*Registry, error) {
	r := &Registry{
		publisher:     publisher,
		config:        config,
		claimAttempts: defaultClaimAttempts,
		conflictRetry: utils.RetryConfig{
			Attempts:     5,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     200 * time.Millisecond,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.table = store.NewTable(backend, namespace, schemaVersion, func() *Account { return &Account{} }, store.WithClock(r.now))

	claimConflicts, err := telemetry.GetCounter(meter, telemetry.AccountClaimConflictsName)
	if err != nil {
		return nil, fmt.Errorf("failed to create claim conflicts counter: %w", err)
	}
	r.claimConflicts = claimConflicts

	return r, nil
}

type RegisterRequest struct {
	AwsAccountID string `json:"awsAccountId"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
}

// Register adds an account to the pool as Available.
func (r *Registry) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	account := &Account{
		AwsAccountID: req.AwsAccountID,
		Status:       StatusAvailable,
		Email:        req.Email,
		Name:         req.Name,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := r.table.Create(ctx, account); err != nil {
		return nil, err
	}

	logger.L().Info(ctx, "registered account", logger.WithAccountID(account.AwsAccountID))

	return account, nil
}

func (r *Registry) Get(ctx context.Context, awsAccountID string) (*Account, error) {
	return r.table.Get(ctx, store.NewKey(awsAccountID))
}

type ListRequest struct {
	Status         *Status
	PageIdentifier *string
	PageSize       int
}

func (r *Registry) List(ctx context.Context, req ListRequest) (store.Page[*Account], error) {
	opts := store.ListOptions[*Account]{
		PageIdentifier: req.PageIdentifier,
		PageSize:       req.PageSize,
	}

	if req.Status != nil {
		status := *req.Status
		opts.Filter = func(a *Account) bool { return a.Status == status }
	}

	return r.table.List(ctx, opts)
}

// ListAll returns every account, optionally restricted to the given statuses.
func (r *Registry) ListAll(ctx context.Context, statuses ...Status) ([]*Account, error) {
	var filter func(*Account) bool
	if len(statuses) > 0 {
		filter = func(a *Account) bool {
			for _, status := range statuses {
				if a.Status == status {
					return true
				}
			}

			return false
		}
	}

	return r.table.ListAll(ctx, filter)
}

// prepare builds the successor of prev without writing it.
func (r *Registry) prepare(prev *Account, to Status, mutate func(*Account)) (*Account, error) {
	if err := AllowedTransitions.Check("account", prev.AwsAccountID, prev.Status, to); err != nil {
		return nil, err
	}

	next := prev.clone()
	next.Status = to

	switch to {
	case StatusCleanUp:
		next.CleanupExecutionContext = &CleanupExecutionContext{
			ExecutionArn: newExecutionArn(prev.AwsAccountID),
			StartTime:    r.now().UTC(),
		}
	default:
		next.CleanupExecutionContext = nil
	}

	if to != StatusQuarantine {
		next.QuarantineReason = ""
	}

	if mutate != nil {
		mutate(next)
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	return next, nil
}

// Transition moves prev to the given status in one version checked write.
// prev must be the record as last read; a stale prev fails with a conflict.
func (r *Registry) Transition(ctx context.Context, prev *Account, to Status, mutate func(*Account)) (*Account, error) {
	next, err := r.prepare(prev, to, mutate)
	if err != nil {
		return nil, err
	}

	if err := r.table.PutWithVersionCheck(ctx, next, prev); err != nil {
		return nil, err
	}

	logger.L().Info(ctx, "account transitioned",
		logger.WithAccountID(next.AwsAccountID),
		zap.String("account.from", string(prev.Status)),
		zap.String("account.to", string(to)),
	)

	return next, nil
}

// Update computes the next record from the current one. Returning a nil
// account means there is nothing to write.
type Update func(current *Account) (*Account, error)

// UpdateWithRetry re-reads and reapplies update until the write wins or the
// attempts run out. changed reports whether a write happened.
func (r *Registry) UpdateWithRetry(ctx context.Context, awsAccountID string, update Update) (result *Account, changed bool, err error) {
	err = utils.RetryWhen(ctx, r.conflictRetry, store.IsConflict, func(ctx context.Context) error {
		current, err := r.Get(ctx, awsAccountID)
		if err != nil {
			return err
		}

		next, err := update(current)
		if err != nil {
			return err
		}

		if next == nil {
			result, changed = current, false

			return nil
		}

		if err := r.table.PutWithVersionCheck(ctx, next, current); err != nil {
			return err
		}

		result, changed = next, true

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, changed, nil
}

// ClaimAvailable picks an Available account and marks it Active. A lost race
// is retried against a fresh candidate list.
func (r *Registry) ClaimAvailable(ctx context.Context) (*Account, error) {
	ctx, span := tracer.Start(ctx, "claim-account")
	defer span.End()

	var lastConflict error

	for attempt := range r.claimAttempts {
		available := StatusAvailable

		page, err := r.List(ctx, ListRequest{Status: &available, PageSize: claimCandidates})
		if err != nil {
			return nil, fmt.Errorf("failed to list available accounts: %w", err)
		}

		if len(page.Items) == 0 {
			return nil, ErrNoCapacity
		}

		candidate := page.Items[rand.IntN(len(page.Items))]

		claimed, err := r.Transition(ctx, candidate, StatusActive, nil)
		if err == nil {
			return claimed, nil
		}

		if !store.IsConflict(err) {
			return nil, err
		}

		lastConflict = err
		r.claimConflicts.Add(ctx, 1)

		logger.L().Debug(ctx, "lost account claim, retrying",
			logger.WithAccountID(candidate.AwsAccountID),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, fmt.Errorf("failed to claim an account after %d attempts: %w", r.claimAttempts, lastConflict)
}

// transitionWithRetry moves the account to status unless it is already there.
func (r *Registry) transitionWithRetry(ctx context.Context, awsAccountID string, to Status, mutate func(*Account)) (*Account, bool, error) {
	return r.UpdateWithRetry(ctx, awsAccountID, func(current *Account) (*Account, error) {
		if current.Status == to {
			return nil, nil
		}

		return r.prepare(current, to, mutate)
	})
}

// Freeze moves an Active account to Frozen.
func (r *Registry) Freeze(ctx context.Context, awsAccountID string) (*Account, error) {
	account, _, err := r.transitionWithRetry(ctx, awsAccountID, StatusFrozen, nil)

	return account, err
}

// Unfreeze moves a Frozen account back to Active.
func (r *Registry) Unfreeze(ctx context.Context, awsAccountID string) (*Account, error) {
	account, _, err := r.transitionWithRetry(ctx, awsAccountID, StatusActive, nil)

	return account, err
}

// Quarantine takes the account out of circulation.
func (r *Registry) Quarantine(ctx context.Context, awsAccountID, reason string) (*Account, error) {
	if reason == "" {
		return nil, lifecycle.Invalid("reason", "is required")
	}

	account, changed, err := r.transitionWithRetry(ctx, awsAccountID, StatusQuarantine, func(a *Account) {
		a.QuarantineReason = reason
	})
	if err != nil {
		return nil, err
	}

	if changed {
		r.publish(ctx, events.AccountQuarantined{AwsAccountID: awsAccountID, Reason: reason})
	}

	return account, nil
}

// Deregister removes an account that is not in use.
func (r *Registry) Deregister(ctx context.Context, awsAccountID string) error {
	return utils.RetryWhen(ctx, r.conflictRetry, store.IsConflict, func(ctx context.Context) error {
		current, err := r.Get(ctx, awsAccountID)
		if err != nil {
			return err
		}

		if current.Status != StatusAvailable && current.Status != StatusQuarantine {
			return &lifecycle.InvalidTransitionError{Kind: "account", ID: awsAccountID, From: string(current.Status), To: "Deregistered"}
		}

		if err := r.table.DeleteWithVersionCheck(ctx, current); err != nil {
			return err
		}

		logger.L().Info(ctx, "deregistered account", logger.WithAccountID(awsAccountID))

		return nil
	})
}

// publish sends details after their write committed. Delivery failures are
// reported but never undo the write.
func (r *Registry) publish(ctx context.Context, details ...events.Detail) {
	if err := r.publisher.Publish(ctx, details...); err != nil {
		telemetry.ReportError(ctx, "failed to publish account events", err)
	}
}

func newExecutionArn(awsAccountID string) string {
	return fmt.Sprintf("cleanup:%s:%s", awsAccountID, uuid.NewString())
}
