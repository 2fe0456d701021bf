package leases

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
)

const (
	namespace     = "leases"
	schemaVersion = 1
)

type Status string

const (
	StatusPendingApproval Status = "PendingApproval"
	StatusActive          Status = "Active"
	StatusFrozen          Status = "Frozen"
	StatusExpired         Status = "Expired"
	StatusTerminated      Status = "Terminated"
	StatusApprovalDenied  Status = "ApprovalDenied"
)

var Statuses = []Status{
	StatusPendingApproval,
	StatusActive,
	StatusFrozen,
	StatusExpired,
	StatusTerminated,
	StatusApprovalDenied,
}

// AllowedTransitions is the lease state machine.
var AllowedTransitions = lifecycle.Transitions[Status]{
	StatusPendingApproval: {
		StatusActive:         true,
		StatusApprovalDenied: true,
	},
	StatusActive: {
		StatusFrozen:     true,
		StatusExpired:    true,
		StatusTerminated: true,
	},
	StatusFrozen: {
		StatusActive:     true,
		StatusExpired:    true,
		StatusTerminated: true,
	},
}

// Monitored statuses are the ones the sweep evaluates.
func (s Status) Monitored() bool {
	return s == StatusActive || s == StatusFrozen
}

// Open is a lease that still counts against the per-user limit.
func (s Status) Open() bool {
	return s == StatusPendingApproval || s.Monitored()
}

func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusTerminated || s == StatusApprovalDenied
}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Termination reasons recorded on ended leases.
const (
	ReasonExpired        = "Expired"
	ReasonBudgetExceeded = "BudgetExceeded"
	ReasonLeaseExpired   = "LeaseExpired"
	ReasonManual         = "ManuallyTerminated"
	ReasonDenied         = "ApprovalDenied"
)

// Lease is one user's grant of a sandbox account. Which fields are required
// depends on Status, see Validate.
type Lease struct {
	UserEmail string `json:"userEmail"`
	UUID      string `json:"uuid"`
	Status    Status `json:"status"`

	OriginalLeaseTemplateUUID string `json:"originalLeaseTemplateUuid"`
	OriginalLeaseTemplateName string `json:"originalLeaseTemplateName"`
	TeamID                    string `json:"teamId,omitempty"`
	Comments                  string `json:"comments,omitempty"`

	// Policy copied from the template at creation.
	MaxSpend             *decimal.Decimal               `json:"maxSpend,omitempty"`
	LeaseDurationInHours *int                           `json:"leaseDurationInHours,omitempty"`
	BudgetThresholds     []thresholds.BudgetThreshold   `json:"budgetThresholds"`
	DurationThresholds   []thresholds.DurationThreshold `json:"durationThresholds"`

	AwsAccountID     string          `json:"awsAccountId,omitempty"`
	TotalCostAccrued decimal.Decimal `json:"totalCostAccrued"`
	ApprovedBy       string          `json:"approvedBy,omitempty"`
	StartDate        *time.Time      `json:"startDate,omitempty"`
	ExpirationDate   *time.Time      `json:"expirationDate,omitempty"`
	LastCheckedDate  *time.Time      `json:"lastCheckedDate,omitempty"`

	DeniedBy          string     `json:"deniedBy,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
	TerminationReason string     `json:"terminationReason,omitempty"`

	store.Meta `json:"meta"`
}

func (l *Lease) RecordKey() store.Key {
	return store.NewCompositeKey(l.UserEmail, l.UUID)
}

// LeaseID is the opaque external identifier of the lease.
func (l *Lease) LeaseID() string {
	key := l.RecordKey()

	return *store.EncodePageIdentifier(&key)
}

// ParseLeaseID reverses Lease.LeaseID.
func ParseLeaseID(leaseID string) (store.Key, error) {
	key, err := store.DecodePageIdentifier(&leaseID)
	if err != nil || key == nil || key.SK == "" {
		return store.Key{}, lifecycle.Invalid("leaseId", "%q is not a lease identifier", leaseID)
	}

	return *key, nil
}

// DurationHours is how long the lease has been running at now, or ran for if it ended.
func (l *Lease) DurationHours(now time.Time) float64 {
	if l.StartDate == nil {
		return 0
	}

	end := now
	if l.EndDate != nil {
		end = *l.EndDate
	}

	return end.Sub(*l.StartDate).Hours()
}

func (l *Lease) detail() events.LeaseDetail {
	return events.LeaseDetail{
		LeaseID:              l.LeaseID(),
		UserEmail:            l.UserEmail,
		UUID:                 l.UUID,
		Status:               string(l.Status),
		OriginalTemplateUUID: l.OriginalLeaseTemplateUUID,
		AwsAccountID:         l.AwsAccountID,
		TotalCostAccrued:     l.TotalCostAccrued,
	}
}

func (l *Lease) clone() *Lease {
	next := *l
	next.MaxSpend = clonePtr(l.MaxSpend)
	next.LeaseDurationInHours = clonePtr(l.LeaseDurationInHours)
	next.StartDate = clonePtr(l.StartDate)
	next.ExpirationDate = clonePtr(l.ExpirationDate)
	next.LastCheckedDate = clonePtr(l.LastCheckedDate)
	next.EndDate = clonePtr(l.EndDate)
	next.BudgetThresholds = slices.Clone(l.BudgetThresholds)
	next.DurationThresholds = slices.Clone(l.DurationThresholds)

	return &next
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}

// Validate checks that exactly the fields of the current status are set.
func (l *Lease) Validate() error {
	if strings.TrimSpace(l.UserEmail) == "" {
		return lifecycle.Invalid("userEmail", "is required")
	}

	if l.UUID == "" {
		return lifecycle.Invalid("uuid", "is required")
	}

	if !l.Status.Valid() {
		return lifecycle.Invalid("status", "unknown status %q", l.Status)
	}

	if l.TotalCostAccrued.IsNegative() {
		return lifecycle.Invalid("totalCostAccrued", "must not be negative")
	}

	if err := thresholds.ValidateBudget(l.BudgetThresholds); err != nil {
		return lifecycle.Invalid("budgetThresholds", "%s", err)
	}

	if err := thresholds.ValidateDuration(l.DurationThresholds); err != nil {
		return lifecycle.Invalid("durationThresholds", "%s", err)
	}

	switch l.Status {
	case StatusPendingApproval:
		if l.AwsAccountID != "" {
			return lifecycle.Invalid("awsAccountId", "must be empty while pending approval")
		}

		if l.ApprovedBy != "" || l.StartDate != nil || l.EndDate != nil {
			return lifecycle.Invalid("status", "a pending lease cannot carry approval or end data")
		}
	case StatusActive, StatusFrozen:
		if l.AwsAccountID == "" {
			return lifecycle.Invalid("awsAccountId", "is required for a %s lease", l.Status)
		}

		if l.ApprovedBy == "" {
			return lifecycle.Invalid("approvedBy", "is required for a %s lease", l.Status)
		}

		if l.StartDate == nil {
			return lifecycle.Invalid("startDate", "is required for a %s lease", l.Status)
		}

		if l.EndDate != nil {
			return lifecycle.Invalid("endDate", "must be empty for a %s lease", l.Status)
		}
	case StatusExpired, StatusTerminated:
		if l.AwsAccountID == "" {
			return lifecycle.Invalid("awsAccountId", "is required for a %s lease", l.Status)
		}

		if l.EndDate == nil || l.TerminationReason == "" {
			return lifecycle.Invalid("endDate", "an ended lease needs an end date and a reason")
		}
	case StatusApprovalDenied:
		if l.DeniedBy == "" {
			return lifecycle.Invalid("deniedBy", "is required for a denied lease")
		}

		if l.AwsAccountID != "" {
			return lifecycle.Invalid("awsAccountId", "a denied lease never held an account")
		}

		if l.EndDate == nil {
			return lifecycle.Invalid("endDate", "is required for a denied lease")
		}
	}

	return nil
}
