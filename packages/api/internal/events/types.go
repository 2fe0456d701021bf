package events

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type DetailType string

const (
	LeaseRequestedType              DetailType = "LeaseRequested"
	LeaseApprovedType               DetailType = "LeaseApproved"
	LeaseDeniedType                 DetailType = "LeaseDenied"
	LeaseFrozenType                 DetailType = "LeaseFrozen"
	LeaseUnfrozenType               DetailType = "LeaseUnfrozen"
	LeaseTerminatedType             DetailType = "LeaseTerminated"
	LeaseExpiredType                DetailType = "LeaseExpired"
	LeaseBudgetThresholdAlertType   DetailType = "LeaseBudgetThresholdAlert"
	LeaseDurationThresholdAlertType DetailType = "LeaseDurationThresholdAlert"
	LeaseBudgetExceededType         DetailType = "LeaseBudgetExceeded"
	LeaseExpiredAlertType           DetailType = "LeaseExpiredAlert"
	CleanAccountRequestType         DetailType = "CleanAccountRequest"
	AccountCleanupSucceededType     DetailType = "AccountCleanupSucceeded"
	AccountCleanupFailedType        DetailType = "AccountCleanupFailed"
	AccountQuarantinedType          DetailType = "AccountQuarantined"
	AccountDriftDetectedType        DetailType = "AccountDriftDetected"
)

// ValidationError reports an event payload that does not match its schema.
type ValidationError struct {
	DetailType DetailType
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.DetailType == "" {
		return "invalid event: " + e.Reason
	}

	return fmt.Sprintf("invalid %s event: %s", e.DetailType, e.Reason)
}

// Detail is the payload of one event variant.
type Detail interface {
	DetailType() DetailType
	// SubjectKey groups events about the same lease or account.
	SubjectKey() string
	Validate() error
}

// LeaseDetail is the lease snapshot carried by every lease event.
type LeaseDetail struct {
	LeaseID              string          `json:"leaseId"`
	UserEmail            string          `json:"userEmail"`
	UUID                 string          `json:"uuid"`
	Status               string          `json:"status"`
	OriginalTemplateUUID string          `json:"originalLeaseTemplateUuid,omitempty"`
	AwsAccountID         string          `json:"awsAccountId,omitempty"`
	TotalCostAccrued     decimal.Decimal `json:"totalCostAccrued"`
}

func (l LeaseDetail) validate() error {
	var missing []string
	if l.LeaseID == "" {
		missing = append(missing, "leaseId")
	}
	if l.UserEmail == "" {
		missing = append(missing, "userEmail")
	}
	if l.UUID == "" {
		missing = append(missing, "uuid")
	}
	if l.Status == "" {
		missing = append(missing, "status")
	}

	if len(missing) > 0 {
		return fmt.Errorf("lease is missing %s", strings.Join(missing, ", "))
	}

	return nil
}

func requireAccount(awsAccountID string) error {
	if awsAccountID == "" {
		return errors.New("awsAccountId is required")
	}

	return nil
}

type LeaseRequested struct {
	Lease LeaseDetail `json:"lease"`
}

func (LeaseRequested) DetailType() DetailType { return LeaseRequestedType }
func (e LeaseRequested) SubjectKey() string { return e.Lease.LeaseID }
func (e LeaseRequested) Validate() error { return e.Lease.validate() }

type LeaseApproved struct {
	Lease      LeaseDetail `json:"lease"`
	ApprovedBy string      `json:"approvedBy"`
}

func (LeaseApproved) DetailType() DetailType { return LeaseApprovedType }
func (e LeaseApproved) SubjectKey() string { return e.Lease.LeaseID }

func (e LeaseApproved) Validate() error {
	if err := e.Lease.validate(); err != nil {
		return err
	}

	if e.ApprovedBy == "" {
		return errors.New("approvedBy is required")
	}

	return requireAccount(e.Lease.AwsAccountID)
}

type LeaseDenied struct {
	Lease    LeaseDetail `json:"lease"`
	DeniedBy string      `json:"deniedBy"`
}

func (LeaseDenied) DetailType() DetailType { return LeaseDeniedType }
func (e LeaseDenied) SubjectKey() string { return e.Lease.LeaseID }

func (e LeaseDenied) Validate() error {
	if e.DeniedBy == "" {
		return errors.New("deniedBy is required")
	}

	return e.Lease.validate()
}

type LeaseFrozen struct {
	Lease  LeaseDetail `json:"lease"`
	Reason string      `json:"reason"`
}

func (LeaseFrozen) DetailType() DetailType { return LeaseFrozenType }
func (e LeaseFrozen) SubjectKey() string { return e.Lease.LeaseID }

func (e LeaseFrozen) Validate() error {
	if e.Reason == "" {
		return errors.New("reason is required")
	}

	return e.Lease.validate()
}

type LeaseUnfrozen struct {
	Lease      LeaseDetail `json:"lease"`
	UnfrozenBy string      `json:"unfrozenBy"`
}

func (LeaseUnfrozen) DetailType() DetailType { return LeaseUnfrozenType }
func (e LeaseUnfrozen) SubjectKey() string { return e.Lease.LeaseID }

func (e LeaseUnfrozen) Validate() error {
	if e.UnfrozenBy == "" {
		return errors.New("unfrozenBy is required")
	}

	return e.Lease.validate()
}

type LeaseTerminated struct {
	Lease  LeaseDetail `json:"lease"`
	Reason string      `json:"reason"`
}

func (LeaseTerminated) DetailType() DetailType { return LeaseTerminatedType }
func (e LeaseTerminated) SubjectKey() string { return e.Lease.LeaseID }

func (e LeaseTerminated) Validate() error {
	if e.Reason == "" {
		return errors.New("reason is required")
	}

	return e.Lease.validate()
}

type LeaseExpired struct {
	Lease LeaseDetail `json:"lease"`
}

func (LeaseExpired) DetailType() DetailType { return LeaseExpiredType }
func (e LeaseExpired) SubjectKey() string { return e.Lease.LeaseID }
func (e LeaseExpired) Validate() error { return e.Lease.validate() }

type LeaseBudgetThresholdAlert struct {
	Lease        LeaseDetail     `json:"lease"`
	DollarsSpent decimal.Decimal `json:"dollarsSpent"`
	Action       string          `json:"action"`
}

func (LeaseBudgetThresholdAlert) DetailType() DetailType { return LeaseBudgetThresholdAlertType }
func (e LeaseBudgetThresholdAlert) SubjectKey() string { return e.Lease.LeaseID }

func (e LeaseBudgetThresholdAlert) Validate() error {
	if e.Action == "" {
		return errors.New("action is required")
	}

	return e.Lease.validate()
}

type LeaseDurationThresholdAlert struct {
	Lease          LeaseDetail `json:"lease"`
	HoursRemaining int         `json:"hoursRemaining"`
	Action         string      `json:"action"`
}

func (LeaseDurationThresholdAlert) DetailType() DetailType { return LeaseDurationThresholdAlertType }
func (e LeaseDurationThresholdAlert) SubjectKey() string { return e.Lease.LeaseID }

func (e LeaseDurationThresholdAlert) Validate() error {
	if e.Action == "" {
		return errors.New("action is required")
	}

	return e.Lease.validate()
}

// LeaseBudgetExceeded is emitted when spend reclaims the lease.
type LeaseBudgetExceeded struct {
	Lease     LeaseDetail      `json:"lease"`
	Threshold decimal.Decimal  `json:"threshold"`
	MaxSpend  *decimal.Decimal `json:"maxSpend,omitempty"`
}

func (LeaseBudgetExceeded) DetailType() DetailType { return LeaseBudgetExceededType }
func (e LeaseBudgetExceeded) SubjectKey() string { return e.Lease.LeaseID }

func (e LeaseBudgetExceeded) Validate() error {
	if err := e.Lease.validate(); err != nil {
		return err
	}

	return requireAccount(e.Lease.AwsAccountID)
}

// LeaseExpiredAlert is emitted when a duration threshold reclaims the lease.
type LeaseExpiredAlert struct {
	Lease          LeaseDetail `json:"lease"`
	HoursRemaining int         `json:"hoursRemaining"`
}

func (LeaseExpiredAlert) DetailType() DetailType { return LeaseExpiredAlertType }
func (e LeaseExpiredAlert) SubjectKey() string { return e.Lease.LeaseID }

func (e LeaseExpiredAlert) Validate() error {
	if err := e.Lease.validate(); err != nil {
		return err
	}

	return requireAccount(e.Lease.AwsAccountID)
}

type CleanAccountRequest struct {
	AwsAccountID string `json:"awsAccountId"`
	Reason       string `json:"reason"`
}

func (CleanAccountRequest) DetailType() DetailType { return CleanAccountRequestType }
func (e CleanAccountRequest) SubjectKey() string { return e.AwsAccountID }
func (e CleanAccountRequest) Validate() error { return requireAccount(e.AwsAccountID) }

type AccountCleanupSucceeded struct {
	AwsAccountID string `json:"awsAccountId"`
}

func (AccountCleanupSucceeded) DetailType() DetailType { return AccountCleanupSucceededType }
func (e AccountCleanupSucceeded) SubjectKey() string { return e.AwsAccountID }
func (e AccountCleanupSucceeded) Validate() error { return requireAccount(e.AwsAccountID) }

type AccountCleanupFailed struct {
	AwsAccountID string `json:"awsAccountId"`
	Error        string `json:"error,omitempty"`
}

func (AccountCleanupFailed) DetailType() DetailType { return AccountCleanupFailedType }
func (e AccountCleanupFailed) SubjectKey() string { return e.AwsAccountID }
func (e AccountCleanupFailed) Validate() error { return requireAccount(e.AwsAccountID) }

type AccountQuarantined struct {
	AwsAccountID string `json:"awsAccountId"`
	Reason       string `json:"reason"`
}

func (AccountQuarantined) DetailType() DetailType { return AccountQuarantinedType }
func (e AccountQuarantined) SubjectKey() string { return e.AwsAccountID }

func (e AccountQuarantined) Validate() error {
	if e.Reason == "" {
		return errors.New("reason is required")
	}

	return requireAccount(e.AwsAccountID)
}

type AccountDriftDetected struct {
	AwsAccountID string `json:"awsAccountId"`
	ExpectedOU   string `json:"expectedOu"`
	ActualOU     string `json:"actualOu"`
}

func (AccountDriftDetected) DetailType() DetailType { return AccountDriftDetectedType }
func (e AccountDriftDetected) SubjectKey() string { return e.AwsAccountID }

func (e AccountDriftDetected) Validate() error {
	if e.ExpectedOU == e.ActualOU {
		return errors.New("expected and actual placement are equal")
	}

	return requireAccount(e.AwsAccountID)
}
