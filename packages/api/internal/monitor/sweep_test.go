package monitor

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
	"github.com/sandbox-pool/infra/packages/api/internal/leases"
	"github.com/sandbox-pool/infra/packages/api/internal/store/memory"
	"github.com/sandbox-pool/infra/packages/api/internal/teams"
	"github.com/sandbox-pool/infra/packages/api/internal/templates"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
	sharedevents "github.com/sandbox-pool/infra/packages/shared/pkg/events"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

var requester = identity.User{Email: "alice@example.com", Roles: []identity.Role{identity.RoleUser}}

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

type fakeSpend struct {
	mu    sync.Mutex
	costs map[string]decimal.Decimal
}

func (f *fakeSpend) Set(awsAccountID string, cost int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.costs[awsAccountID] = decimal.NewFromInt(cost)
}

func (f *fakeSpend) TotalCost(_ context.Context, lease *leases.Lease) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.costs[lease.AwsAccountID], nil
}

type testEnv struct {
	sweeper   *Sweeper
	leases    *leases.Registry
	accounts  *accounts.Registry
	templates *templates.Registry
	delivery  *sharedevents.MemoryDelivery[events.Event]
	spend     *fakeSpend
	clock     *fakeClock
}

func newTestEnv(t *testing.T, cfg Config, wrap func(Leases) Leases) *testEnv {
	t.Helper()

	backend := memory.NewBackend()
	delivery := sharedevents.NewMemoryDelivery[events.Event]()
	dispatcher := events.NewDispatcher(delivery)
	config := globalconfig.NewStaticProvider(globalconfig.GlobalConfig{
		CleanupNumSuccessfulAttemptsToFinish: 1,
		CleanupNumFailedAttemptsToAbort:      1,
	})
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	fastRetry := utils.RetryConfig{Attempts: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	accountRegistry, err := accounts.NewRegistry(backend, dispatcher, config, accounts.WithClock(clock.Now), accounts.WithConflictRetry(fastRetry))
	require.NoError(t, err)

	templateCache := templates.NewCache(time.Minute)
	t.Cleanup(func() { _ = templateCache.Close(context.Background()) })

	templateRegistry := templates.NewRegistry(backend, templateCache, config)
	leaseRegistry := leases.NewRegistry(backend, accountRegistry, templateRegistry, teams.NewRegistry(backend), dispatcher, config,
		leases.WithClock(clock.Now),
		leases.WithConflictRetry(fastRetry),
	)

	var leaseSource Leases = leaseRegistry
	if wrap != nil {
		leaseSource = wrap(leaseRegistry)
	}

	spend := &fakeSpend{costs: map[string]decimal.Decimal{}}

	sweeper, err := New(leaseSource, accountRegistry, cfg, WithSpendSource(spend), WithClock(clock.Now))
	require.NoError(t, err)

	return &testEnv{
		sweeper:   sweeper,
		leases:    leaseRegistry,
		accounts:  accountRegistry,
		templates: templateRegistry,
		delivery:  delivery,
		spend:     spend,
		clock:     clock,
	}
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

func (e *testEnv) approvedLease(t *testing.T, awsAccountID string, hours int) *leases.Lease {
	t.Helper()

	_, err := e.accounts.Register(t.Context(), accounts.RegisterRequest{AwsAccountID: awsAccountID})
	require.NoError(t, err)

	template, err := e.templates.Create(t.Context(), "admin@example.com", templates.Spec{
		Name:                 "standard",
		RequiresApproval:     true,
		LeaseDurationInHours: utils.ToPtr(hours),
		BudgetThresholds: []thresholds.BudgetThreshold{
			{DollarsSpent: decimal.NewFromInt(100), Action: thresholds.ActionAlert},
			{DollarsSpent: decimal.NewFromInt(500), Action: thresholds.ActionReclaim},
		},
	})
	require.NoError(t, err)

	lease, err := e.leases.Create(t.Context(), requester, leases.CreateRequest{LeaseTemplateUUID: template.UUID})
	require.NoError(t, err)
	require.Equal(t, leases.StatusPendingApproval, lease.Status)

	lease, err = e.leases.Approve(t.Context(), lease.LeaseID(), "manager@example.com")
	require.NoError(t, err)
	require.Equal(t, leases.StatusActive, lease.Status)

	return lease
}

func TestSweepReclaimsOverBudgetLease(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{Concurrency: 4}, nil)
	lease := env.approvedLease(t, "111111111111", 72)

	env.spend.Set(lease.AwsAccountID, 600)

	summary, err := env.sweeper.Sweep(t.Context())
	require.NoError(t, err)
	require.NoError(t, summary.Err())
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Actions[thresholds.ActionReclaim])

	stored, err := env.leases.Get(t.Context(), lease.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, leases.StatusTerminated, stored.Status)
	assert.True(t, stored.TotalCostAccrued.Equal(decimal.NewFromInt(600)))

	account, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusCleanUp, account.Status)

	assert.Equal(t, 1, env.countEvents(events.LeaseBudgetExceededType))
	assert.Equal(t, 1, env.countEvents(events.CleanAccountRequestType))
	assert.Equal(t, 0, env.countEvents(events.LeaseBudgetThresholdAlertType))

	// The next sweep finds nothing left to do.
	summary, err = env.sweeper.Sweep(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, env.countEvents(events.LeaseBudgetExceededType))
}

func TestSweepExpiresLease(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{Concurrency: 2}, nil)
	lease := env.approvedLease(t, "222222222222", 24)

	env.clock.Advance(25 * time.Hour)

	summary, err := env.sweeper.Sweep(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Expired)

	stored, err := env.leases.Get(t.Context(), lease.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, leases.StatusExpired, stored.Status)

	account, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusCleanUp, account.Status)
	assert.Equal(t, 1, env.countEvents(events.LeaseExpiredType))
}

// failingLeases fails threshold evaluation for one lease.
type failingLeases struct {
	Leases

	failFor string
}

func (f *failingLeases) ApplyThresholds(ctx context.Context, leaseID string, now time.Time) (leases.ThresholdOutcome, error) {
	if leaseID == f.failFor {
		return leases.ThresholdOutcome{}, errors.New("store unavailable")
	}

	return f.Leases.ApplyThresholds(ctx, leaseID, now)
}

func TestSweepIsolatesFailures(t *testing.T) {
	t.Parallel()

	failing := &failingLeases{}
	env := newTestEnv(t, Config{Concurrency: 3}, func(l Leases) Leases {
		failing.Leases = l

		return failing
	})

	broken := env.approvedLease(t, "333333333333", 72)
	healthy := env.approvedLease(t, "444444444444", 72)
	failing.failFor = broken.LeaseID()

	env.spend.Set(broken.AwsAccountID, 600)
	env.spend.Set(healthy.AwsAccountID, 600)

	summary, err := env.sweeper.Sweep(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	require.Len(t, summary.LeaseFailures, 1)
	assert.Equal(t, broken.LeaseID(), summary.LeaseFailures[0].LeaseID)
	require.Error(t, summary.Err())

	stored, err := env.leases.Get(t.Context(), healthy.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, leases.StatusTerminated, stored.Status)

	stored, err = env.leases.Get(t.Context(), broken.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, leases.StatusActive, stored.Status)
}

func TestSweepReconcilesOrphanedAccounts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{Concurrency: 1, ReconcileGracePeriod: 15 * time.Minute}, nil)
	lease := env.approvedLease(t, "555555555555", 72)

	_, err := env.accounts.Register(t.Context(), accounts.RegisterRequest{AwsAccountID: "666666666666"})
	require.NoError(t, err)

	// A claim whose lease write never happened leaves the account Active.
	orphan, err := env.accounts.ClaimAvailable(t.Context())
	require.NoError(t, err)
	require.Equal(t, "666666666666", orphan.AwsAccountID)

	summary, err := env.sweeper.Sweep(t.Context())
	require.NoError(t, err)
	assert.Empty(t, summary.Reconciled, "inside the grace period")

	env.clock.Advance(20 * time.Minute)

	summary, err = env.sweeper.Sweep(t.Context())
	require.NoError(t, err)
	require.NoError(t, summary.Err())
	assert.Equal(t, []string{"666666666666"}, summary.Reconciled)

	account, err := env.accounts.Get(t.Context(), "666666666666")
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusCleanUp, account.Status)

	held, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusActive, held.Status)
}

func TestSweepResyncsFrozenAccount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{Concurrency: 1}, nil)
	lease := env.approvedLease(t, "777777777777", 72)

	_, err := env.leases.Freeze(t.Context(), lease.LeaseID(), "manual")
	require.NoError(t, err)

	// Simulate a lost account write.
	_, err = env.accounts.Unfreeze(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)

	summary, err := env.sweeper.Sweep(t.Context())
	require.NoError(t, err)
	require.NoError(t, summary.Err())

	account, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusFrozen, account.Status)
}

func TestSweepLeavesAccountPastFrozen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		move func(t *testing.T, env *testEnv, awsAccountID string)
		want accounts.Status
	}{
		{
			name: "cleanup",
			move: func(t *testing.T, env *testEnv, awsAccountID string) {
				_, err := env.accounts.StartCleanup(t.Context(), awsAccountID, "manual")
				require.NoError(t, err)
			},
			want: accounts.StatusCleanUp,
		},
		{
			name: "quarantine",
			move: func(t *testing.T, env *testEnv, awsAccountID string) {
				_, err := env.accounts.Quarantine(t.Context(), awsAccountID, "manual")
				require.NoError(t, err)
			},
			want: accounts.StatusQuarantine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, Config{Concurrency: 1}, nil)
			lease := env.approvedLease(t, "888888888888", 72)

			_, err := env.leases.Freeze(t.Context(), lease.LeaseID(), "manual")
			require.NoError(t, err)

			tt.move(t, env, lease.AwsAccountID)

			for range 2 {
				summary, err := env.sweeper.Sweep(t.Context())
				require.NoError(t, err)
				require.NoError(t, summary.Err())
				assert.Empty(t, summary.AccountFailures)
			}

			account, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, account.Status)
		})
	}
}

func TestEndToEndLeaseLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{Concurrency: 2}, nil)

	lease := env.approvedLease(t, "888888888888", 72)
	assert.Equal(t, "888888888888", lease.AwsAccountID)

	env.delivery.Reset()
	env.spend.Set(lease.AwsAccountID, 600)

	_, err := env.sweeper.Sweep(t.Context())
	require.NoError(t, err)

	stored, err := env.leases.Get(t.Context(), lease.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, leases.StatusTerminated, stored.Status)

	account, err := env.accounts.Get(t.Context(), lease.AwsAccountID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusCleanUp, account.Status)

	assert.Equal(t, 1, env.countEvents(events.LeaseBudgetExceededType))
	assert.Equal(t, 1, env.countEvents(events.CleanAccountRequestType))
}

type fakeLocker struct {
	mu   sync.Mutex
	held bool
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return nil, false, nil
	}

	l.held = true

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()

		l.held = false

		return nil
	}, true, nil
}

func TestRunOnceSkipsWhenLocked(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{Concurrency: 1, Interval: time.Minute}, nil)
	lease := env.approvedLease(t, "999999999999", 72)
	env.spend.Set(lease.AwsAccountID, 600)

	locker := &fakeLocker{held: true}
	env.sweeper.locker = locker

	env.sweeper.runOnce(t.Context())

	stored, err := env.leases.Get(t.Context(), lease.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, leases.StatusActive, stored.Status)

	locker.held = false
	env.sweeper.runOnce(t.Context())

	stored, err = env.leases.Get(t.Context(), lease.LeaseID())
	require.NoError(t, err)
	assert.Equal(t, leases.StatusTerminated, stored.Status)
	assert.False(t, locker.held)
}
