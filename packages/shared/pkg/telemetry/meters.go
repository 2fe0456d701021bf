package telemetry

import "go.opentelemetry.io/otel/metric"

type CounterType string

const (
	SweepLeasesProcessedMeterName CounterType = "api.sweep.leases.processed"
	SweepActionsMeterName         CounterType = "api.sweep.actions"
	SweepFailuresMeterName        CounterType = "api.sweep.failures"
	AccountClaimConflictsName     CounterType = "api.accounts.claim.conflicts"
)

var counterDesc = map[CounterType]string{
	SweepLeasesProcessedMeterName: "Number of monitored leases evaluated by the sweep.",
	SweepActionsMeterName:         "Number of threshold or expiry actions applied by the sweep.",
	SweepFailuresMeterName:        "Number of leases the sweep failed to process.",
	AccountClaimConflictsName:     "Number of account claims lost to a concurrent writer.",
}

var counterUnits = map[CounterType]string{
	SweepLeasesProcessedMeterName: "{lease}",
	SweepActionsMeterName:         "{action}",
	SweepFailuresMeterName:        "{lease}",
	AccountClaimConflictsName:     "{conflict}",
}

func GetCounter(meter metric.Meter, name CounterType) (metric.Int64Counter, error) {
	desc := counterDesc[name]
	unit := counterUnits[name]

	return meter.Int64Counter(string(name),
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	)
}
