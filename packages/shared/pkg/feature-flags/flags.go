package feature_flags

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

type BoolFlag struct {
	name     string
	fallback bool
}

func (f BoolFlag) Key() string { return f.name }
func (f BoolFlag) Fallback() bool { return f.fallback }

func NewBoolFlag(name string, fallback bool) BoolFlag {
	return BoolFlag{name: name, fallback: fallback}
}

type IntFlag struct {
	name     string
	fallback int
}

func (f IntFlag) Key() string { return f.name }
func (f IntFlag) Fallback() int { return f.fallback }

func NewIntFlag(name string, fallback int) IntFlag {
	return IntFlag{name: name, fallback: fallback}
}

type StringFlag struct {
	name     string
	fallback string
}

func (f StringFlag) Key() string { return f.name }
func (f StringFlag) Fallback() string { return f.fallback }

func NewStringFlag(name string, fallback string) StringFlag {
	return StringFlag{name: name, fallback: fallback}
}

type JSONFlag struct {
	name     string
	fallback ldvalue.Value
}

func (f JSONFlag) Key() string { return f.name }
func (f JSONFlag) Fallback() ldvalue.Value { return f.fallback }

func NewJSONFlag(name string, fallback ldvalue.Value) JSONFlag {
	return JSONFlag{name: name, fallback: fallback}
}

// Flag keys read by the lifecycle global configuration.
const (
	MaintenanceModeFlagName    = "maintenance-mode"
	UnfreezeEnabledFlagName    = "lease-unfreeze-enabled"
	MaxLeasesPerUserFlagName   = "max-leases-per-user"
	ManagedRegionsFlagName     = "managed-regions"
	TermsOfServiceFlagName     = "terms-of-service"
	RequireMaxSpendFlagName    = "require-max-spend"
	MaxBudgetFlagName          = "max-budget"
	MaxDurationHoursFlagName   = "max-duration-hours"
	CleanupSuccessAttemptsName = "cleanup-successful-attempts-to-finish"
	CleanupFailedAttemptsName  = "cleanup-failed-attempts-to-abort"
)
