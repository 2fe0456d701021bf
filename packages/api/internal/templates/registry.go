// Package templates owns lease templates. Reads go through an explicit cache
// created at startup and invalidated on every write.
package templates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
	"github.com/sandbox-pool/infra/packages/shared/pkg/cache"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

type Registry struct {
	table         *store.Table[*LeaseTemplate]
	cache         *cache.Cache[string, *LeaseTemplate]
	config        globalconfig.Provider
	conflictRetry utils.RetryConfig
}

func NewRegistry(backend store.Backend, templateCache *cache.Cache[string, *LeaseTemplate], config globalconfig.Provider) *Registry {
	return &Registry{
		table:  store.NewTable(backend, namespace, schemaVersion, func() *LeaseTemplate { return &LeaseTemplate{} }),
		cache:  templateCache,
		config: config,
		conflictRetry: utils.RetryConfig{
			Attempts:     3,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     100 * time.Millisecond,
		},
	}
}

// NewCache builds the cache a Registry reads through.
func NewCache(ttl time.Duration) *cache.Cache[string, *LeaseTemplate] {
	return cache.NewCache[string, *LeaseTemplate](cache.Config{TTL: ttl})
}

type Spec struct {
	Name                 string                         `json:"name"`
	Description          string                         `json:"description,omitempty"`
	RequiresApproval     bool                           `json:"requiresApproval"`
	MaxSpend             *decimal.Decimal               `json:"maxSpend,omitempty"`
	LeaseDurationInHours *int                           `json:"leaseDurationInHours,omitempty"`
	BudgetThresholds     []thresholds.BudgetThreshold   `json:"budgetThresholds"`
	DurationThresholds   []thresholds.DurationThreshold `json:"durationThresholds"`
}

func (s Spec) apply(t *LeaseTemplate) {
	t.Name = s.Name
	t.Description = s.Description
	t.RequiresApproval = s.RequiresApproval
	t.MaxSpend = s.MaxSpend
	t.LeaseDurationInHours = s.LeaseDurationInHours
	t.BudgetThresholds = thresholds.ResetBudget(thresholds.SortBudget(s.BudgetThresholds))
	t.DurationThresholds = thresholds.ResetDuration(thresholds.SortDuration(s.DurationThresholds))
}

func (r *Registry) Create(ctx context.Context, createdBy string, spec Spec) (*LeaseTemplate, error) {
	cfg, err := r.config.Get(ctx)
	if err != nil {
		return nil, err
	}

	template := &LeaseTemplate{UUID: uuid.NewString(), CreatedBy: createdBy}
	spec.apply(template)

	if err := template.Validate(cfg); err != nil {
		return nil, err
	}

	if err := r.table.Create(ctx, template); err != nil {
		return nil, err
	}

	logger.L().Info(ctx, "created lease template", logger.WithTemplateID(template.UUID), logger.WithUserEmail(createdBy))

	return template.clone(), nil
}

// Get returns a copy of the template, served from the cache when possible.
func (r *Registry) Get(ctx context.Context, templateUUID string) (*LeaseTemplate, error) {
	template, err := r.cache.GetOrSet(ctx, templateUUID, func(ctx context.Context, key string) (*LeaseTemplate, error) {
		return r.table.Get(ctx, store.NewKey(key))
	})
	if err != nil {
		return nil, err
	}

	return template.clone(), nil
}

func (r *Registry) List(ctx context.Context, pageIdentifier *string, pageSize int) (store.Page[*LeaseTemplate], error) {
	return r.table.List(ctx, store.ListOptions[*LeaseTemplate]{PageIdentifier: pageIdentifier, PageSize: pageSize})
}

// Update replaces the template's policy. Leases already created keep the policy they copied.
func (r *Registry) Update(ctx context.Context, templateUUID string, spec Spec) (*LeaseTemplate, error) {
	cfg, err := r.config.Get(ctx)
	if err != nil {
		return nil, err
	}

	var updated *LeaseTemplate

	err = utils.RetryWhen(ctx, r.conflictRetry, store.IsConflict, func(ctx context.Context) error {
		current, err := r.table.Get(ctx, store.NewKey(templateUUID))
		if err != nil {
			return err
		}

		next := current.clone()
		spec.apply(next)

		if err := next.Validate(cfg); err != nil {
			return err
		}

		if err := r.table.PutWithVersionCheck(ctx, next, current); err != nil {
			return err
		}

		updated = next

		return nil
	})

	r.cache.Invalidate(templateUUID)

	if err != nil {
		return nil, err
	}

	logger.L().Info(ctx, "updated lease template", logger.WithTemplateID(templateUUID))

	return updated.clone(), nil
}

func (r *Registry) Delete(ctx context.Context, templateUUID string) error {
	defer r.cache.Invalidate(templateUUID)

	if err := r.table.Delete(ctx, store.NewKey(templateUUID)); err != nil {
		return err
	}

	logger.L().Info(ctx, "deleted lease template", logger.WithTemplateID(templateUUID))

	return nil
}
