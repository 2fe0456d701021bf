package leases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandbox-pool/infra/packages/api/internal/accounts"
	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/identity"
	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/store/memory"
	"github.com/sandbox-pool/infra/packages/api/internal/teams"
	"github.com/sandbox-pool/infra/packages/api/internal/templates"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
	sharedevents "github.com/sandbox-pool/infra/packages/shared/pkg/events"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

var (
	alice   = identity.User{Email: "alice@example.com", Roles: []identity.Role{identity.RoleUser}}
	manager = identity.User{Email: "manager@example.com", Roles: []identity.Role{identity.RoleManager}}
	admin   = identity.User{Email: "admin@example.com", Roles: []identity.Role{identity.RoleAdmin}}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// brokenCleanup fails every cleanup request.
type brokenCleanup struct {
	*accounts.Registry
}

func (brokenCleanup) StartCleanup(context.Context, string, string) (*accounts.Account, error) {
	return nil, errors.New("cleanup orchestration unavailable")
}

// stuckFreeze fails every account freeze.
type stuckFreeze struct {
	*accounts.Registry
}

func (stuckFreeze) Freeze(context.Context, string) (*accounts.Account, error) {
	return nil, errors.New("account store unavailable")
}

type testEnv struct {
	leases    *Registry
	accounts  *accounts.Registry
	templates *templates.Registry
	teams     *teams.Registry
	delivery  *sharedevents.MemoryDelivery[events.Event]
	config    *globalconfig.StaticProvider
	clock     *fakeClock
	backend   store.Backend
}

type envOptions struct {
	wrapPool    func(*accounts.Registry) AccountPool
	wrapBackend func(store.Backend) store.Backend
	retry       *utils.RetryConfig
}

func newTestEnv(t *testing.T, opts ...func(*envOptions)) *testEnv {
	t.Helper()

	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}

	var backend store.Backend = memory.NewBackend()
	if o.wrapBackend != nil {
		backend = o.wrapBackend(backend)
	}

	delivery := sharedevents.NewMemoryDelivery[events.Event]()
	dispatcher := events.NewDispatcher(delivery)
	config := globalconfig.NewStaticProvider(globalconfig.GlobalConfig{
		UnfreezeEnabled:                      true,
		CleanupNumSuccessfulAttemptsToFinish: 1,
		CleanupNumFailedAttemptsToAbort:      1,
	})
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	fastRetry := utils.RetryConfig{Attempts: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	if o.retry != nil {
		fastRetry = *o.retry
	}

	accountRegistry, err := accounts.NewRegistry(backend, dispatcher, config, accounts.WithClock(clock.Now), accounts.WithConflictRetry(fastRetry))
	require.NoError(t, err)

	templateCache := templates.NewCache(time.Minute)
	t.Cleanup(func() { _ = templateCache.Close(context.Background()) })

	templateRegistry := templates.NewRegistry(backend, templateCache, config)
	teamRegistry := teams.NewRegistry(backend)

	var pool AccountPool = accountRegistry
	if o.wrapPool != nil {
		pool = o.wrapPool(accountRegistry)
	}

	leaseRegistry := NewRegistry(backend, pool, templateRegistry, teamRegistry, dispatcher, config,
		WithClock(clock.Now),
		WithConflictRetry(fastRetry),
	)

	return &testEnv{
		leases:    leaseRegistry,
		accounts:  accountRegistry,
		templates: templateRegistry,
		teams:     teamRegistry,
		delivery:  delivery,
		config:    config,
		clock:     clock,
		backend:   backend,
	}
}

func (e *testEnv) registerAccounts(t *testing.T, ids ...string) {
	t.Helper()

	for _, id := range ids {
		_, err := e.accounts.Register(t.Context(), accounts.RegisterRequest{AwsAccountID: id})
		require.NoError(t, err)
	}
}

func (e *testEnv) template(t *testing.T, requiresApproval bool) *templates.LeaseTemplate {
	t.Helper()

	template, err := e.templates.Create(t.Context(), admin.Email, templates.Spec{
		Name:                 "standard",
		RequiresApproval:     requiresApproval,
		MaxSpend:             utils.ToPtr(decimal.NewFromInt(1000)),
		LeaseDurationInHours: utils.ToPtr(72),
		BudgetThresholds: []thresholds.BudgetThreshold{
			{DollarsSpent: decimal.NewFromInt(100), Action: thresholds.ActionAlert},
			{DollarsSpent: decimal.NewFromInt(500), Action: thresholds.ActionReclaim},
		},
		DurationThresholds: []thresholds.DurationThreshold{
			{HoursRemaining: 24, Action: thresholds.ActionAlert},
			{HoursRemaining: 2, Action: thresholds.ActionFreeze},
		},
	})
	require.NoError(t, err)

	return template
}

// activeLease creates and approves a lease on a fresh account.
func (e *testEnv) activeLease(t *testing.T, accountID string) *Lease {
	t.Helper()

	e.registerAccounts(t, accountID)
	template := e.template(t, true)

	lease, err := e.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID})
	require.NoError(t, err)

	lease, err = e.leases.Approve(t.Context(), lease.LeaseID(), manager.Email)
	require.NoError(t, err)

	return lease
}

func (e *testEnv) eventTypes() []events.DetailType {
	types := make([]events.DetailType, 0)
	for _, d := range e.delivery.Delivered() {
		types = append(types, d.Payload.DetailType)
	}

	return types
}

func (e *testEnv) countEvents(detailType events.DetailType) int {
	count := 0
	for _, d := range e.delivery.Delivered() {
		if d.Payload.DetailType == detailType {
			count++
		}
	}

	return count
}

func TestCreateSnapshotsTemplate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	template := env.template(t, true)

	lease, err := env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID, Comments: "load test"})
	require.NoError(t, err)
	assert.Equal(t, StatusPendingApproval, lease.Status)
	assert.Equal(t, template.UUID, lease.OriginalLeaseTemplateUUID)
	assert.True(t, lease.MaxSpend.Equal(decimal.NewFromInt(1000)))
	require.Len(t, lease.BudgetThresholds, 2)
	assert.Equal(t, []events.DetailType{events.LeaseRequestedType}, env.eventTypes())

	_, err = env.templates.Update(t.Context(), template.UUID, templates.Spec{
		Name:                 "cheaper",
		RequiresApproval:     true,
		MaxSpend:             utils.ToPtr(decimal.NewFromInt(50)),
		LeaseDurationInHours: utils.ToPtr(4),
	})
	require.NoError(t, err)

	stored, err := env.leases.Get(t.Context(), lease.LeaseID())
	require.NoError(t, err)
	assert.True(t, stored.MaxSpend.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 72, *stored.LeaseDurationInHours)
	assert.Len(t, stored.BudgetThresholds, 2)
}

func TestCreateAutoApproves(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.registerAccounts(t, "111111111111")
	template := env.template(t, false)

	lease, err := env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, lease.Status)
	assert.Equal(t, "111111111111", lease.AwsAccountID)
	assert.Equal(t, identity.System.Email, lease.ApprovedBy)

	account, err := env.accounts.Get(t.Context(), "111111111111")
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusActive, account.Status)
}

func TestCreateRejections(t *testing.T) {
	t.Parallel()

	t.Run("maintenance mode", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		template := env.template(t, true)
		env.config.Update(func(cfg *globalconfig.GlobalConfig) { cfg.MaintenanceMode = true })

		_, err := env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID})
		require.ErrorIs(t, err, lifecycle.ErrMaintenanceMode)
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)

		_, err := env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: "missing"})
		assert.True(t, store.IsNotFound(err))
	})

	t.Run("not a team member", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		template := env.template(t, true)

		team, err := env.teams.Create(t.Context(), "platform", "owner@example.com")
		require.NoError(t, err)

		_, err = env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID, TeamID: team.ID})
		require.ErrorIs(t, err, identity.ErrForbidden)

		_, err = env.teams.AddMember(t.Context(), team.ID, alice.Email)
		require.NoError(t, err)

		lease, err := env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID, TeamID: team.ID})
		require.NoError(t, err)
		assert.Equal(t, team.ID, lease.TeamID)
	})

	t.Run("lease limit", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		template := env.template(t, true)
		env.config.Update(func(cfg *globalconfig.GlobalConfig) { cfg.MaxLeasesPerUser = 1 })

		first, err := env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID})
		require.NoError(t, err)

		_, err = env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID})
		require.ErrorIs(t, err, ErrLeaseLimitReached)

		_, err = env.leases.Deny(t.Context(), first.LeaseID(), manager.Email)
		require.NoError(t, err)

		_, err = env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID})
		require.NoError(t, err)
	})
}

func TestApprove(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	lease := env.activeLease(t, "222222222222")

	assert.Equal(t, StatusActive, lease.Status)
	assert.Equal(t, "222222222222", lease.AwsAccountID)
	assert.Equal(t, manager.Email, lease.ApprovedBy)
	require.NotNil(t, lease.ExpirationDate)
	assert.Equal(t, env.clock.Now().Add(72*time.Hour), *lease.ExpirationDate)
	assert.Contains(t, env.eventTypes(), events.LeaseApprovedType)

	_, err := env.leases.Approve(t.Context(), lease.LeaseID(), manager.Email)
	assert.True(t, lifecycle.IsInvalidTransition(err))
}

func TestApproveWithoutCapacity(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	template := env.template(t, true)

	lease, err := env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID})
	require.NoError(t, err)

	_, err = env.leases.Approve(t.Context(), lease.LeaseID(), manager.Email)
	require.ErrorIs(t, err, accounts.ErrNoCapacity)

	stored, err := env.leases.Get(t.Context(), lease.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, StatusPendingApproval, stored.Status)
	assert.Empty(t, stored.AwsAccountID)
}

func TestDeny(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.registerAccounts(t, "333333333333")
	template := env.template(t, true)

	lease, err := env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: template.UUID})
	require.NoError(t, err)

	denied, err := env.leases.Deny(t.Context(), lease.LeaseID(), manager.Email)
	require.NoError(t, err)
	assert.Equal(t, StatusApprovalDenied, denied.Status)
	assert.Equal(t, manager.Email, denied.DeniedBy)
	assert.Contains(t, env.eventTypes(), events.LeaseDeniedType)

	_, err = env.leases.Approve(t.Context(), lease.LeaseID(), manager.Email)
	assert.True(t, lifecycle.IsInvalidTransition(err))

	account, err := env.accounts.Get(t.Context(), "333333333333")
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusAvailable, account.Status)
}

func TestIllegalTransitionsLeaveStateUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		// setup returns the lease in the starting state.
		setup func(t *testing.T, env *testEnv) *Lease
		act   func(t *testing.T, env *testEnv, leaseID string) error
	}{
		{
			name: "terminate pending",
			setup: func(t *testing.T, env *testEnv) *Lease {
				lease, err := env.leases.Create(t.Context(), alice, CreateRequest{LeaseTemplateUUID: env.template(t, true).UUID})
				require.NoError(t, err)

				return lease
			},
			act: func(t *testing.T, env *testEnv, leaseID string) error {
				_, err := env.leases.Terminate(t.Context(), leaseID, "")

				return err
			},
		},
		{
			name: "approve expired",
			setup: func(t *testing.T, env *testEnv) *Lease {
				lease := env.activeLease(t, "444444444444")
				result, err := env.leases.Expire(t.Context(), lease.LeaseID())
				require.NoError(t, err)

				return result.Lease
			},
			act: func(t *testing.T, env *testEnv, leaseID string) error {
				_, err := env.leases.Approve(t.Context(), leaseID, manager.Email)

				return err
			},
		},
		{
			name: "freeze terminated",
			setup: func(t *testing.T, env *testEnv) *Lease {
				lease := env.activeLease(t, "555555555555")
				result, err := env.leases.Terminate(t.Context(), lease.LeaseID(), "")
				require.NoError(t, err)

				return result.Lease
			},
			act: func(t *testing.T, env *testEnv, leaseID string) error {
				_, err := env.leases.Freeze(t.Context(), leaseID, "manual")

				return err
			},
		},
		{
			name: "deny active",
			setup: func(t *testing.T, env *testEnv) *Lease {
				return env.activeLease(t, "666666666666")
			},
			act: func(t *testing.T, env *testEnv, leaseID string) error {
				_, err := env.leases.Deny(t.Context(), leaseID, manager.Email)

				return err
			},
		},
		{
			name: "unfreeze active",
			setup: func(t *testing.T, env *testEnv) *Lease {
				return env.activeLease(t, "777777777777")
			},
			act: func(t *testing.T, env *testEnv, leaseID string) error {
				_, err := env.leases.Unfreeze(t.Context(), leaseID, admin)

				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			lease := tt.setup(t, env)

			err := tt.act(t, env, lease.LeaseID())
			assert.True(t, lifecycle.IsInvalidTransition(err), "got %v", err)

			stored, err := env.leases.Get(t.Context(), lease.LeaseID())
			require.NoError(t, err)
			assert.Equal(t, lease.Status, stored.Status)
			assert.True(t, lease.LastEditTime.Equal(stored.LastEditTime))
		})
	}
}

func TestUpdateSpendIsMonotonic(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	lease := env.activeLease(t, "888888888888")

	updated, err := env.leases.UpdateSpend(t.Context(), lease.LeaseID(), decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.True(t, updated.TotalCostAccrued.Equal(decimal.RequireFromString("12.5")))

	_, err = env.leases.UpdateSpend(t.Context(), lease.LeaseID(), decimal.RequireFromString("12.49"))

	var decrease *CostDecreaseError
	require.ErrorAs(t, err, &decrease)
	assert.True(t, decrease.Current.Equal(decimal.RequireFromString("12.5")))

	same, err := env.leases.UpdateSpend(t.Context(), lease.LeaseID(), decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	assert.True(t, same.LastEditTime.Equal(updated.LastEditTime))

	_, err = env.leases.UpdateSpend(t.Context(), lease.LeaseID(), decimal.NewFromInt(-1))
	assert.True(t, lifecycle.IsValidation(err))
}

func TestTerminate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	lease := env.activeLease(t, "999999999999")

	result, err := env.leases.Terminate(t.Context(), lease.LeaseID(), "")
	require.NoError(t, err)
	require.NoError(t, result.CleanupErr)
	assert.Equal(t, StatusTerminated, result.Lease.Status)
	assert.Equal(t, ReasonManual, result.Lease.TerminationReason)
	assert.NotNil(t, result.Lease.EndDate)

	account, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusCleanUp, account.Status)

	assert.Equal(t, 1, env.countEvents(events.LeaseTerminatedType))
	assert.Equal(t, 1, env.countEvents(events.CleanAccountRequestType))
}

func TestTerminateReportsCleanupFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(o *envOptions) {
		o.wrapPool = func(r *accounts.Registry) AccountPool { return brokenCleanup{Registry: r} }
	})
	lease := env.activeLease(t, "101010101010")

	result, err := env.leases.Terminate(t.Context(), lease.LeaseID(), "")
	require.NoError(t, err)
	require.Error(t, result.CleanupErr)
	assert.Equal(t, StatusTerminated, result.Lease.Status)

	stored, err := env.leases.Get(t.Context(), lease.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, StatusTerminated, stored.Status)

	account, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusActive, account.Status)
}

func TestFreezeAndUnfreeze(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	lease := env.activeLease(t, "121212121212")

	frozen, err := env.leases.Freeze(t.Context(), lease.LeaseID(), "suspicious activity")
	require.NoError(t, err)
	require.NoError(t, frozen.AccountErr)
	assert.Equal(t, StatusFrozen, frozen.Lease.Status)

	account, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusFrozen, account.Status)

	_, err = env.leases.Unfreeze(t.Context(), lease.LeaseID(), manager)
	require.ErrorIs(t, err, identity.ErrForbidden)

	env.config.Update(func(cfg *globalconfig.GlobalConfig) { cfg.UnfreezeEnabled = false })

	_, err = env.leases.Unfreeze(t.Context(), lease.LeaseID(), admin)
	require.ErrorIs(t, err, ErrUnfreezeDisabled)

	env.config.Update(func(cfg *globalconfig.GlobalConfig) { cfg.UnfreezeEnabled = true })

	active, err := env.leases.Unfreeze(t.Context(), lease.LeaseID(), admin)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, active.Status)

	account, err = env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusActive, account.Status)

	assert.Equal(t, 1, env.countEvents(events.LeaseFrozenType))
	assert.Equal(t, 1, env.countEvents(events.LeaseUnfrozenType))
}

func TestExpire(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	lease := env.activeLease(t, "131313131313")

	result, err := env.leases.Expire(t.Context(), lease.LeaseID())
	require.NoError(t, err)
	require.NoError(t, result.CleanupErr)
	assert.Equal(t, StatusExpired, result.Lease.Status)
	assert.Equal(t, ReasonExpired, result.Lease.TerminationReason)
	assert.Equal(t, 1, env.countEvents(events.LeaseExpiredType))
}

func TestListByUserAndStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	template := env.template(t, true)

	bob := identity.User{Email: "bob@example.com"}
	for _, user := range []identity.User{alice, alice, bob} {
		_, err := env.leases.Create(t.Context(), user, CreateRequest{LeaseTemplateUUID: template.UUID})
		require.NoError(t, err)
	}

	page, err := env.leases.List(t.Context(), ListRequest{UserEmail: alice.Email})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	pending := StatusPendingApproval
	page, err = env.leases.List(t.Context(), ListRequest{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	monitored, err := env.leases.ListMonitored(t.Context())
	require.NoError(t, err)
	assert.Empty(t, monitored)
}

func TestParseLeaseID(t *testing.T) {
	t.Parallel()

	lease := &Lease{UserEmail: "alice@example.com", UUID: "c0ffee"}

	key, err := ParseLeaseID(lease.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, store.NewCompositeKey("alice@example.com", "c0ffee"), key)

	for _, invalid := range []string{"", "not base64!", *store.EncodePageIdentifier(&store.Key{PK: "only-pk"})} {
		_, err := ParseLeaseID(invalid)
		assert.True(t, lifecycle.IsValidation(err), invalid)
	}
}

func TestFreezeSurfacesAccountError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(o *envOptions) {
		o.wrapPool = func(r *accounts.Registry) AccountPool { return stuckFreeze{r} }
	})
	lease := env.activeLease(t, "131313131313")

	frozen, err := env.leases.Freeze(t.Context(), lease.LeaseID(), "suspicious activity")
	require.NoError(t, err)
	require.Error(t, frozen.AccountErr)
	assert.Contains(t, frozen.AccountErr.Error(), lease.AwsAccountID)
	assert.Equal(t, StatusFrozen, frozen.Lease.Status)

	account, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusActive, account.Status)
}
