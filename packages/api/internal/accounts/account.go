package accounts

import (
	"slices"
	"time"

	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
)

const (
	namespace     = "accounts"
	schemaVersion = 1
)

type Status string

const (
	StatusAvailable  Status = "Available"
	StatusActive     Status = "Active"
	StatusCleanUp    Status = "CleanUp"
	StatusQuarantine Status = "Quarantine"
	StatusFrozen     Status = "Frozen"
)

var Statuses = []Status{StatusAvailable, StatusActive, StatusCleanUp, StatusQuarantine, StatusFrozen}

// AllowedTransitions is the account state machine.
var AllowedTransitions = lifecycle.Transitions[Status]{
	StatusAvailable: {
		StatusActive:     true,
		StatusQuarantine: true,
	},
	StatusActive: {
		StatusCleanUp:    true,
		StatusFrozen:     true,
		StatusQuarantine: true,
	},
	StatusCleanUp: {
		StatusAvailable:  true,
		StatusQuarantine: true,
	},
	StatusFrozen: {
		StatusCleanUp:    true,
		StatusActive:     true,
		StatusQuarantine: true,
	},
	StatusQuarantine: {
		StatusCleanUp: true,
	},
}

// CleanupExecutionContext tracks the cleanup run of an account in CleanUp.
type CleanupExecutionContext struct {
	ExecutionArn       string    `json:"executionArn"`
	StartTime          time.Time `json:"startTime"`
	SucceededAttempts  int       `json:"succeededAttempts"`
	FailedAttempts     int       `json:"failedAttempts"`
	LastFailureMessage string    `json:"lastFailureMessage,omitempty"`
}

type Account struct {
	AwsAccountID            string                   `json:"awsAccountId"`
	Status                  Status                   `json:"status"`
	Email                   string                   `json:"email,omitempty"`
	Name                    string                   `json:"name,omitempty"`
	CleanupExecutionContext *CleanupExecutionContext `json:"cleanupExecutionContext,omitempty"`
	DriftAtLastScan         bool                     `json:"driftAtLastScan"`
	QuarantineReason        string                   `json:"quarantineReason,omitempty"`
	store.Meta              `json:"meta"`
}

func (a *Account) RecordKey() store.Key {
	return store.NewKey(a.AwsAccountID)
}

func (a *Account) clone() *Account {
	next := *a
	if a.CleanupExecutionContext != nil {
		cleanup := *a.CleanupExecutionContext
		next.CleanupExecutionContext = &cleanup
	}

	return &next
}

func validAccountID(id string) bool {
	if len(id) != 12 {
		return false
	}

	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

// Validate checks the fields every stored account must satisfy.
func (a *Account) Validate() error {
	if !validAccountID(a.AwsAccountID) {
		return lifecycle.Invalid("awsAccountId", "must be 12 digits, got %q", a.AwsAccountID)
	}

	if !slices.Contains(Statuses, a.Status) {
		return lifecycle.Invalid("status", "unknown status %q", a.Status)
	}

	if (a.Status == StatusCleanUp) != (a.CleanupExecutionContext != nil) {
		return lifecycle.Invalid("cleanupExecutionContext", "must be set exactly when the account is in %s", StatusCleanUp)
	}

	return nil
}
