// Package leases owns lease records and drives the lease state machine. Every
// account side effect goes through the account registry as a separate write.
package leases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/api/internal/accounts"
	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/identity"
	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/templates"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	"github.com/sandbox-pool/infra/packages/shared/pkg/telemetry"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

var tracer = otel.Tracer("github.com/sandbox-pool/infra/packages/api/internal/leases")

var (
	ErrLeaseLimitReached = errors.New("lease limit for this template reached")
	ErrUnfreezeDisabled  = errors.New("unfreezing leases is disabled")
)

// CostDecreaseError rejects a spend update lower than the stored total.
type CostDecreaseError struct {
	LeaseID   string
	Current   decimal.Decimal
	Requested decimal.Decimal
}

func (e *CostDecreaseError) Error() string {
	return fmt.Sprintf("lease %s: cost %s is lower than the accrued %s", e.LeaseID, e.Requested, e.Current)
}

// AccountPool is the part of the account registry leases drive.
type AccountPool interface {
	ClaimAvailable(ctx context.Context) (*accounts.Account, error)
	StartCleanup(ctx context.Context, awsAccountID, reason string) (*accounts.Account, error)
	Freeze(ctx context.Context, awsAccountID string) (*accounts.Account, error)
	Unfreeze(ctx context.Context, awsAccountID string) (*accounts.Account, error)
}

type TemplateSource interface {
	Get(ctx context.Context, templateUUID string) (*templates.LeaseTemplate, error)
}

type TeamDirectory interface {
	IsMember(ctx context.Context, teamID, email string) (bool, error)
}

var (
	_ AccountPool    = (*accounts.Registry)(nil)
	_ TemplateSource = (*templates.Registry)(nil)
)

type Registry struct {
	table     *store.Table[*Lease]
	slots     *store.Table[*slot]
	accounts  AccountPool
	templates TemplateSource
	teams     TeamDirectory
	publisher events.Publisher
	config    globalconfig.Provider

	conflictRetry utils.RetryConfig
	now           func() time.Time
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func WithConflictRetry(cfg utils.RetryConfig) Option {
	return func(r *Registry) {
		r.conflictRetry = cfg
	}
}

func NewRegistry(
	backend store.Backend,
	accountPool AccountPool,
	templateSource TemplateSource,
	teamDirectory TeamDirectory,
	publisher events.Publisher,
	config globalconfig.Provider,
	opts ...Option,
) *Registry {
	r := &Registry{
		accounts:  accountPool,
		templates: templateSource,
		teams:     teamDirectory,
		publisher: publisher,
		config:    config,
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

	r.table = store.NewTable(backend, namespace, schemaVersion, func() *Lease { return &Lease{} }, store.WithClock(r.now))
	r.slots = store.NewTable(backend, slotNamespace, slotSchemaVersion, func() *slot { return &slot{} }, store.WithClock(r.now))

	return r
}

func (r *Registry) Get(ctx context.Context, leaseID string) (*Lease, error) {
	key, err := ParseLeaseID(leaseID)
	if err != nil {
		return nil, err
	}

	return r.table.Get(ctx, key)
}

type ListRequest struct {
	UserEmail      string
	Status         *Status
	PageIdentifier *string
	PageSize       int
}

func (r *Registry) List(ctx context.Context, req ListRequest) (store.Page[*Lease], error) {
	opts := store.ListOptions[*Lease]{
		PageIdentifier: req.PageIdentifier,
		PageSize:       req.PageSize,
	}

	if req.UserEmail != "" || req.Status != nil {
		opts.Filter = func(l *Lease) bool {
			if req.UserEmail != "" && l.UserEmail != req.UserEmail {
				return false
			}

			return req.Status == nil || l.Status == *req.Status
		}
	}

	return r.table.List(ctx, opts)
}

// ListMonitored returns every Active or Frozen lease.
func (r *Registry) ListMonitored(ctx context.Context) ([]*Lease, error) {
	return r.table.ListAll(ctx, func(l *Lease) bool { return l.Status.Monitored() })
}

type CreateRequest struct {
	LeaseTemplateUUID string `json:"leaseTemplateUuid"`
	TeamID            string `json:"teamId,omitempty"`
	Comments          string `json:"comments,omitempty"`
}

// Create records a lease request. Templates that do not require approval are
// approved right away by the system identity.
func (r *Registry) Create(ctx context.Context, user identity.User, req CreateRequest) (*Lease, error) {
	ctx, span := tracer.Start(ctx, "create-lease")
	defer span.End()

	cfg, err := r.config.Get(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.MaintenanceMode {
		return nil, lifecycle.ErrMaintenanceMode
	}

	if user.Email == "" {
		return nil, lifecycle.Invalid("userEmail", "is required")
	}

	if req.LeaseTemplateUUID == "" {
		return nil, lifecycle.Invalid("leaseTemplateUuid", "is required")
	}

	template, err := r.templates.Get(ctx, req.LeaseTemplateUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lease template: %w", err)
	}

	if req.TeamID != "" {
		member, err := r.teams.IsMember(ctx, req.TeamID, user.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check team membership: %w", err)
		}

		if !member {
			return nil, fmt.Errorf("%s is not a member of team %s: %w", user.Email, req.TeamID, identity.ErrForbidden)
		}
	}

	lease := &Lease{
		UserEmail:                 user.Email,
		UUID:                      uuid.NewString(),
		Status:                    StatusPendingApproval,
		OriginalLeaseTemplateUUID: template.UUID,
		OriginalLeaseTemplateName: template.Name,
		TeamID:                    req.TeamID,
		Comments:                  req.Comments,
		MaxSpend:                  template.MaxSpend,
		LeaseDurationInHours:      template.LeaseDurationInHours,
		BudgetThresholds:          thresholds.ResetBudget(template.BudgetThresholds),
		DurationThresholds:        thresholds.ResetDuration(template.DurationThresholds),
		TotalCostAccrued:          decimal.Zero,
	}

	if err := lease.Validate(); err != nil {
		return nil, err
	}

	var reserved *slot
	if cfg.MaxLeasesPerUser > 0 {
		reserved, err = r.reserveSlot(ctx, user.Email, template.UUID, lease.UUID, cfg.MaxLeasesPerUser)
		if err != nil {
			return nil, err
		}
	}

	if err := r.table.Create(ctx, lease); err != nil {
		if reserved != nil {
			r.dropSlot(ctx, reserved)
		}

		return nil, err
	}

	logger.L().Info(ctx, "lease requested",
		logger.WithLeaseID(lease.LeaseID()),
		logger.WithTemplateID(template.UUID),
		logger.WithUserEmail(user.Email),
	)

	r.publish(ctx, events.LeaseRequested{Lease: lease.detail()})

	if template.RequiresApproval {
		return lease, nil
	}

	approved, err := r.Approve(ctx, lease.LeaseID(), identity.System.Email)
	if err != nil {
		return nil, fmt.Errorf("lease %s was requested but could not be approved: %w", lease.LeaseID(), err)
	}

	return approved, nil
}

// Approve binds an Available account to a pending lease. If the lease write
// loses, the claimed account is sent to cleanup instead of leaking.
func (r *Registry) Approve(ctx context.Context, leaseID, approver string) (*Lease, error) {
	ctx, span := tracer.Start(ctx, "approve-lease")
	defer span.End()

	current, err := r.Get(ctx, leaseID)
	if err != nil {
		return nil, err
	}

	// Frozen -> Active is legal too, but that is Unfreeze.
	if current.Status != StatusPendingApproval {
		return nil, &lifecycle.InvalidTransitionError{Kind: "lease", ID: leaseID, From: string(current.Status), To: string(StatusActive)}
	}

	account, err := r.accounts.ClaimAvailable(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()

	next := current.clone()
	next.Status = StatusActive
	next.AwsAccountID = account.AwsAccountID
	next.ApprovedBy = approver
	next.StartDate = &now
	next.LastCheckedDate = &now

	if next.LeaseDurationInHours != nil {
		expiration := now.Add(time.Duration(*next.LeaseDurationInHours) * time.Hour)
		next.ExpirationDate = &expiration
	}

	err = next.Validate()
	if err == nil {
		err = r.table.PutWithVersionCheck(ctx, next, current)
	}

	if err != nil {
		if _, releaseErr := r.accounts.StartCleanup(ctx, account.AwsAccountID, "lease approval did not complete"); releaseErr != nil {
			telemetry.ReportCriticalError(ctx, "failed to release claimed account", releaseErr, telemetry.WithAccountID(account.AwsAccountID))

			return nil, errors.Join(err, releaseErr)
		}

		return nil, err
	}

	logger.L().Info(ctx, "lease approved",
		logger.WithLeaseID(leaseID),
		logger.WithAccountID(account.AwsAccountID),
		zap.String("approved_by", approver),
	)

	r.publish(ctx, events.LeaseApproved{Lease: next.detail(), ApprovedBy: approver})

	return next, nil
}

func (r *Registry) Deny(ctx context.Context, leaseID, denier string) (*Lease, error) {
	lease, err := r.update(ctx, leaseID, func(current *Lease) (*Lease, error) {
		if err := AllowedTransitions.Check("lease", leaseID, current.Status, StatusApprovalDenied); err != nil {
			return nil, err
		}

		now := r.now().UTC()

		next := current.clone()
		next.Status = StatusApprovalDenied
		next.DeniedBy = denier
		next.EndDate = &now
		next.TerminationReason = ReasonDenied

		return next, nil
	})
	if err != nil {
		return nil, err
	}

	r.publish(ctx, events.LeaseDenied{Lease: lease.detail(), DeniedBy: denier})
	r.releaseSlot(ctx, lease)

	return lease, nil
}

// UpdateSpend records the total accrued cost. Cost only grows.
func (r *Registry) UpdateSpend(ctx context.Context, leaseID string, totalCost decimal.Decimal) (*Lease, error) {
	if totalCost.IsNegative() {
		return nil, lifecycle.Invalid("totalCostAccrued", "must not be negative")
	}

	return r.update(ctx, leaseID, func(current *Lease) (*Lease, error) {
		if current.Status == StatusPendingApproval || current.Status == StatusApprovalDenied {
			return nil, lifecycle.Invalid("status", "a %s lease does not accrue cost", current.Status)
		}

		if totalCost.LessThan(current.TotalCostAccrued) {
			return nil, &CostDecreaseError{LeaseID: leaseID, Current: current.TotalCostAccrued, Requested: totalCost}
		}

		if totalCost.Equal(current.TotalCostAccrued) {
			return nil, nil
		}

		now := r.now().UTC()

		next := current.clone()
		next.TotalCostAccrued = totalCost
		next.LastCheckedDate = &now

		return next, nil
	})
}

// TerminateResult reports an ended lease. CleanupErr is set when the lease
// ended but its account could not be sent to cleanup; the lease is not rolled back.
type TerminateResult struct {
	Lease      *Lease
	CleanupErr error
}

func (r *Registry) Terminate(ctx context.Context, leaseID, reason string) (TerminateResult, error) {
	ctx, span := tracer.Start(ctx, "terminate-lease")
	defer span.End()

	if reason == "" {
		reason = ReasonManual
	}

	lease, err := r.end(ctx, leaseID, StatusTerminated, reason)
	if err != nil {
		return TerminateResult{}, err
	}

	r.publish(ctx, events.LeaseTerminated{Lease: lease.detail(), Reason: reason})
	r.releaseSlot(ctx, lease)

	return TerminateResult{Lease: lease, CleanupErr: r.cleanupAccount(ctx, lease, reason)}, nil
}

// Expire ends a lease whose expiration date passed.
func (r *Registry) Expire(ctx context.Context, leaseID string) (TerminateResult, error) {
	ctx, span := tracer.Start(ctx, "expire-lease")
	defer span.End()

	lease, err := r.end(ctx, leaseID, StatusExpired, ReasonExpired)
	if err != nil {
		return TerminateResult{}, err
	}

	r.publish(ctx, events.LeaseExpired{Lease: lease.detail()})
	r.releaseSlot(ctx, lease)

	return TerminateResult{Lease: lease, CleanupErr: r.cleanupAccount(ctx, lease, ReasonExpired)}, nil
}

func (r *Registry) end(ctx context.Context, leaseID string, to Status, reason string) (*Lease, error) {
	return r.update(ctx, leaseID, func(current *Lease) (*Lease, error) {
		if err := AllowedTransitions.Check("lease", leaseID, current.Status, to); err != nil {
			return nil, err
		}

		return ended(current, to, reason, r.now().UTC()), nil
	})
}

func ended(current *Lease, to Status, reason string, now time.Time) *Lease {
	next := current.clone()
	next.Status = to
	next.EndDate = &now
	next.LastCheckedDate = &now
	next.TerminationReason = reason

	return next
}

// cleanupAccount is the best effort second write after a lease ended.
func (r *Registry) cleanupAccount(ctx context.Context, lease *Lease, reason string) error {
	if _, err := r.accounts.StartCleanup(ctx, lease.AwsAccountID, reason); err != nil {
		telemetry.ReportCriticalError(ctx, "lease ended but account cleanup was not started", err,
			telemetry.WithLeaseID(lease.LeaseID()),
			telemetry.WithAccountID(lease.AwsAccountID),
		)

		return fmt.Errorf("failed to start cleanup of account %s: %w", lease.AwsAccountID, err)
	}

	return nil
}

// FreezeResult reports a frozen lease. AccountErr is set when the lease froze
// but its account did not; the sweep brings a lagging account in line.
type FreezeResult struct {
	Lease      *Lease
	AccountErr error
}

// Freeze moves an Active lease and its account to Frozen.
func (r *Registry) Freeze(ctx context.Context, leaseID, reason string) (FreezeResult, error) {
	lease, err := r.update(ctx, leaseID, func(current *Lease) (*Lease, error) {
		if err := AllowedTransitions.Check("lease", leaseID, current.Status, StatusFrozen); err != nil {
			return nil, err
		}

		next := current.clone()
		next.Status = StatusFrozen

		return next, nil
	})
	if err != nil {
		return FreezeResult{}, err
	}

	r.publish(ctx, events.LeaseFrozen{Lease: lease.detail(), Reason: reason})

	return FreezeResult{Lease: lease, AccountErr: r.freezeAccount(ctx, lease)}, nil
}

func (r *Registry) freezeAccount(ctx context.Context, lease *Lease) error {
	if _, err := r.accounts.Freeze(ctx, lease.AwsAccountID); err != nil {
		telemetry.ReportError(ctx, "lease frozen but account was not", err,
			telemetry.WithLeaseID(lease.LeaseID()),
			telemetry.WithAccountID(lease.AwsAccountID),
		)

		return fmt.Errorf("failed to freeze account %s: %w", lease.AwsAccountID, err)
	}

	return nil
}

// Unfreeze returns a Frozen lease to Active. It needs an admin and the
// unfreeze switch in the global configuration.
func (r *Registry) Unfreeze(ctx context.Context, leaseID string, actor identity.User) (*Lease, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("unfreezing a lease requires the %s role: %w", identity.RoleAdmin, identity.ErrForbidden)
	}

	cfg, err := r.config.Get(ctx)
	if err != nil {
		return nil, err
	}

	if !cfg.UnfreezeEnabled {
		return nil, ErrUnfreezeDisabled
	}

	current, err := r.Get(ctx, leaseID)
	if err != nil {
		return nil, err
	}

	if current.Status != StatusFrozen {
		return nil, &lifecycle.InvalidTransitionError{Kind: "lease", ID: leaseID, From: string(current.Status), To: string(StatusActive)}
	}

	// The account goes first so a lease is never Active on a Frozen account.
	if _, err := r.accounts.Unfreeze(ctx, current.AwsAccountID); err != nil {
		return nil, fmt.Errorf("failed to unfreeze account %s: %w", current.AwsAccountID, err)
	}

	lease, err := r.update(ctx, leaseID, func(current *Lease) (*Lease, error) {
		if current.Status != StatusFrozen {
			return nil, &lifecycle.InvalidTransitionError{Kind: "lease", ID: leaseID, From: string(current.Status), To: string(StatusActive)}
		}

		next := current.clone()
		next.Status = StatusActive

		return next, nil
	})
	if err != nil {
		return nil, err
	}

	r.publish(ctx, events.LeaseUnfrozen{Lease: lease.detail(), UnfrozenBy: actor.Email})

	return lease, nil
}

// update re-reads and reapplies fn until the write wins. fn returning a nil
// lease means there is nothing to write.
func (r *Registry) update(ctx context.Context, leaseID string, fn func(current *Lease) (*Lease, error)) (*Lease, error) {
	key, err := ParseLeaseID(leaseID)
	if err != nil {
		return nil, err
	}

	var result *Lease

	err = utils.RetryWhen(ctx, r.conflictRetry, store.IsConflict, func(ctx context.Context) error {
		current, err := r.table.Get(ctx, key)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if next == nil {
			result = current

			return nil
		}

		if err := next.Validate(); err != nil {
			return err
		}

		if err := r.table.PutWithVersionCheck(ctx, next, current); err != nil {
			return err
		}

		logger.L().Debug(ctx, "lease written",
			logger.WithLeaseID(leaseID),
			zap.String("lease.from", string(current.Status)),
			zap.String("lease.to", string(next.Status)),
		)

		result = next

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// publish sends details after their write committed. Delivery failures are
// reported but never undo the write.
func (r *Registry) publish(ctx context.Context, details ...events.Detail) {
	if len(details) == 0 {
		return
	}

	if err := r.publisher.Publish(ctx, details...); err != nil {
		telemetry.ReportError(ctx, "failed to publish lease events", err)
	}
}
