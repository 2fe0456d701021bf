package templates

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/store/memory"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

func newTestRegistry(t *testing.T, cfg globalconfig.GlobalConfig) *Registry {
	t.Helper()

	templateCache := NewCache(time.Minute)
	t.Cleanup(func() { _ = templateCache.Close(t.Context()) })

	return NewRegistry(memory.NewBackend(), templateCache, globalconfig.NewStaticProvider(cfg))
}

func usd(v int64) *decimal.Decimal {
	return utils.ToPtr(decimal.NewFromInt(v))
}

func validSpec() Spec {
	return Spec{
		Name:                 "standard",
		RequiresApproval:     true,
		MaxSpend:             usd(500),
		LeaseDurationInHours: utils.ToPtr(72),
		BudgetThresholds: []thresholds.BudgetThreshold{
			{DollarsSpent: decimal.NewFromInt(500), Action: thresholds.ActionReclaim},
			{DollarsSpent: decimal.NewFromInt(100), Action: thresholds.ActionAlert, AlreadyTriggered: true},
		},
		DurationThresholds: []thresholds.DurationThreshold{
			{HoursRemaining: 0, Action: thresholds.ActionReclaim},
			{HoursRemaining: 24, Action: thresholds.ActionAlert},
		},
	}
}

func TestCreateNormalizesThresholds(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, globalconfig.GlobalConfig{})

	template, err := registry.Create(t.Context(), "admin@example.com", validSpec())
	require.NoError(t, err)
	assert.NotEmpty(t, template.UUID)
	assert.Equal(t, "admin@example.com", template.CreatedBy)

	require.Len(t, template.BudgetThresholds, 2)
	assert.True(t, template.BudgetThresholds[0].DollarsSpent.Equal(decimal.NewFromInt(100)))
	assert.False(t, template.BudgetThresholds[0].AlreadyTriggered)
	assert.Equal(t, 24, template.DurationThresholds[0].HoursRemaining)

	got, err := registry.Get(t.Context(), template.UUID)
	require.NoError(t, err)
	assert.Equal(t, template.Name, got.Name)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    globalconfig.GlobalConfig
		modify func(*Spec)
		field  string
	}{
		{name: "missing name", modify: func(s *Spec) { s.Name = " " }, field: "name"},
		{name: "non positive budget", modify: func(s *Spec) { s.MaxSpend = usd(0) }, field: "maxSpend"},
		{name: "budget above global cap", cfg: globalconfig.GlobalConfig{MaxBudget: decimal.NewFromInt(100)}, modify: func(s *Spec) {}, field: "maxSpend"},
		{name: "budget required", cfg: globalconfig.GlobalConfig{RequireMaxSpend: true}, modify: func(s *Spec) { s.MaxSpend = nil; s.BudgetThresholds = nil }, field: "maxSpend"},
		{name: "duration above global cap", cfg: globalconfig.GlobalConfig{MaxDurationHours: 48}, modify: func(s *Spec) {}, field: "leaseDurationInHours"},
		{name: "duplicate budget thresholds", modify: func(s *Spec) {
			s.BudgetThresholds = append(s.BudgetThresholds, thresholds.BudgetThreshold{DollarsSpent: decimal.NewFromInt(100), Action: thresholds.ActionFreeze})
		}, field: "budgetThresholds"},
		{name: "threshold above max spend", modify: func(s *Spec) { s.MaxSpend = usd(200) }, field: "budgetThresholds"},
		{name: "duration threshold longer than lease", modify: func(s *Spec) { s.LeaseDurationInHours = utils.ToPtr(12) }, field: "durationThresholds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			registry := newTestRegistry(t, tt.cfg)

			spec := validSpec()
			tt.modify(&spec)

			_, err := registry.Create(t.Context(), "admin@example.com", spec)

			var validationErr *lifecycle.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, globalconfig.GlobalConfig{})

	template, err := registry.Create(t.Context(), "admin@example.com", validSpec())
	require.NoError(t, err)

	cached, err := registry.Get(t.Context(), template.UUID)
	require.NoError(t, err)

	// Mutating a returned copy never leaks into the cache.
	cached.Name = "mutated"

	spec := validSpec()
	spec.Name = "premium"
	spec.RequiresApproval = false

	updated, err := registry.Update(t.Context(), template.UUID, spec)
	require.NoError(t, err)
	assert.Equal(t, "premium", updated.Name)
	assert.True(t, updated.CreatedTime.Equal(template.CreatedTime))

	got, err := registry.Get(t.Context(), template.UUID)
	require.NoError(t, err)
	assert.Equal(t, "premium", got.Name)
	assert.False(t, got.RequiresApproval)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, globalconfig.GlobalConfig{})

	template, err := registry.Create(t.Context(), "admin@example.com", validSpec())
	require.NoError(t, err)

	_, err = registry.Get(t.Context(), template.UUID)
	require.NoError(t, err)

	require.NoError(t, registry.Delete(t.Context(), template.UUID))

	_, err = registry.Get(t.Context(), template.UUID)
	assert.True(t, store.IsNotFound(err))

	page, err := registry.List(t.Context(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
