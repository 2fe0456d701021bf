package templates

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
)

const (
	namespace     = "lease-templates"
	schemaVersion = 1
)

// LeaseTemplate is the policy a lease is created from. Leases copy it, so
// later edits never reach existing leases.
type LeaseTemplate struct {
	UUID                 string                         `json:"uuid"`
	Name                 string                         `json:"name"`
	Description          string                         `json:"description,omitempty"`
	RequiresApproval     bool                           `json:"requiresApproval"`
	MaxSpend             *decimal.Decimal               `json:"maxSpend,omitempty"`
	LeaseDurationInHours *int                           `json:"leaseDurationInHours,omitempty"`
	BudgetThresholds     []thresholds.BudgetThreshold   `json:"budgetThresholds"`
	DurationThresholds   []thresholds.DurationThreshold `json:"durationThresholds"`
	CreatedBy            string                         `json:"createdBy"`
	store.Meta           `json:"meta"`
}

func (t *LeaseTemplate) RecordKey() store.Key {
	return store.NewKey(t.UUID)
}

func (t *LeaseTemplate) clone() *LeaseTemplate {
	next := *t
	if t.MaxSpend != nil {
		maxSpend := *t.MaxSpend
		next.MaxSpend = &maxSpend
	}

	if t.LeaseDurationInHours != nil {
		hours := *t.LeaseDurationInHours
		next.LeaseDurationInHours = &hours
	}

	next.BudgetThresholds = slices.Clone(t.BudgetThresholds)
	next.DurationThresholds = slices.Clone(t.DurationThresholds)

	return &next
}

// Validate checks the template against its own rules and the global caps.
func (t *LeaseTemplate) Validate(cfg globalconfig.GlobalConfig) error {
	if strings.TrimSpace(t.Name) == "" {
		return lifecycle.Invalid("name", "is required")
	}

	if t.MaxSpend != nil {
		if !t.MaxSpend.IsPositive() {
			return lifecycle.Invalid("maxSpend", "must be positive")
		}

		if cfg.MaxBudget.IsPositive() && t.MaxSpend.GreaterThan(cfg.MaxBudget) {
			return lifecycle.Invalid("maxSpend", "exceeds the global cap of %s", cfg.MaxBudget)
		}
	} else if cfg.RequireMaxSpend {
		return lifecycle.Invalid("maxSpend", "is required")
	}

	if t.LeaseDurationInHours != nil {
		if *t.LeaseDurationInHours <= 0 {
			return lifecycle.Invalid("leaseDurationInHours", "must be positive")
		}

		if cfg.MaxDurationHours > 0 && *t.LeaseDurationInHours > cfg.MaxDurationHours {
			return lifecycle.Invalid("leaseDurationInHours", "exceeds the global cap of %d hours", cfg.MaxDurationHours)
		}
	} else if cfg.MaxDurationHours > 0 {
		return lifecycle.Invalid("leaseDurationInHours", "is required when a global duration cap is set")
	}

	if err := thresholds.ValidateBudget(t.BudgetThresholds); err != nil {
		return lifecycle.Invalid("budgetThresholds", "%s", err)
	}

	if err := thresholds.ValidateDuration(t.DurationThresholds); err != nil {
		return lifecycle.Invalid("durationThresholds", "%s", err)
	}

	if t.MaxSpend != nil {
		for _, threshold := range t.BudgetThresholds {
			if threshold.DollarsSpent.GreaterThan(*t.MaxSpend) {
				return lifecycle.Invalid("budgetThresholds", "threshold %s is above maxSpend %s", threshold.DollarsSpent, t.MaxSpend)
			}
		}
	}

	if t.LeaseDurationInHours != nil {
		for _, threshold := range t.DurationThresholds {
			if threshold.HoursRemaining > *t.LeaseDurationInHours {
				return lifecycle.Invalid("durationThresholds", "threshold %d hours is longer than the lease", threshold.HoursRemaining)
			}
		}
	}

	return nil
}
