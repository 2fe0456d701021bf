package globalconfig

import (
	"context"
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/shopspring/decimal"

	featureflags "github.com/sandbox-pool/infra/packages/shared/pkg/feature-flags"
)

// FlagProvider reads every setting from LaunchDarkly, falling back to the
// configured defaults when a flag is missing.
type FlagProvider struct {
	client *featureflags.Client

	maintenanceMode  featureflags.BoolFlag
	unfreezeEnabled  featureflags.BoolFlag
	termsOfService   featureflags.StringFlag
	managedRegions   featureflags.JSONFlag
	maxLeasesPerUser featureflags.IntFlag
	requireMaxSpend  featureflags.BoolFlag
	maxBudget        featureflags.StringFlag
	maxDurationHours featureflags.IntFlag
	cleanupSuccess   featureflags.IntFlag
	cleanupFailed    featureflags.IntFlag
}

var _ Provider = (*FlagProvider)(nil)

func NewFlagProvider(client *featureflags.Client, defaults GlobalConfig) *FlagProvider {
	regions := make([]ldvalue.Value, 0, len(defaults.ManagedRegions))
	for _, region := range defaults.ManagedRegions {
		regions = append(regions, ldvalue.String(region))
	}

	return &FlagProvider{
		client:           client,
		maintenanceMode:  featureflags.NewBoolFlag(featureflags.MaintenanceModeFlagName, defaults.MaintenanceMode),
		unfreezeEnabled:  featureflags.NewBoolFlag(featureflags.UnfreezeEnabledFlagName, defaults.UnfreezeEnabled),
		termsOfService:   featureflags.NewStringFlag(featureflags.TermsOfServiceFlagName, defaults.TermsOfService),
		managedRegions:   featureflags.NewJSONFlag(featureflags.ManagedRegionsFlagName, ldvalue.ArrayOf(regions...)),
		maxLeasesPerUser: featureflags.NewIntFlag(featureflags.MaxLeasesPerUserFlagName, defaults.MaxLeasesPerUser),
		requireMaxSpend:  featureflags.NewBoolFlag(featureflags.RequireMaxSpendFlagName, defaults.RequireMaxSpend),
		maxBudget:        featureflags.NewStringFlag(featureflags.MaxBudgetFlagName, defaults.MaxBudget.String()),
		maxDurationHours: featureflags.NewIntFlag(featureflags.MaxDurationHoursFlagName, defaults.MaxDurationHours),
		cleanupSuccess:   featureflags.NewIntFlag(featureflags.CleanupSuccessAttemptsName, defaults.CleanupNumSuccessfulAttemptsToFinish),
		cleanupFailed:    featureflags.NewIntFlag(featureflags.CleanupFailedAttemptsName, defaults.CleanupNumFailedAttemptsToAbort),
	}
}

func (p *FlagProvider) Get(ctx context.Context) (GlobalConfig, error) {
	maxBudget, err := decimal.NewFromString(p.client.StringFlag(ctx, p.maxBudget))
	if err != nil {
		return GlobalConfig{}, fmt.Errorf("flag %s is not a decimal: %w", p.maxBudget.Key(), err)
	}

	regionsValue := p.client.JSONFlag(ctx, p.managedRegions)
	regions := make([]string, 0, regionsValue.Count())
	for i := range regionsValue.Count() {
		region := regionsValue.GetByIndex(i)
		if !region.IsString() {
			return GlobalConfig{}, fmt.Errorf("flag %s must be a list of strings", p.managedRegions.Key())
		}

		regions = append(regions, region.StringValue())
	}

	return GlobalConfig{
		MaintenanceMode:                      p.client.BoolFlag(ctx, p.maintenanceMode),
		UnfreezeEnabled:                      p.client.BoolFlag(ctx, p.unfreezeEnabled),
		TermsOfService:                       p.client.StringFlag(ctx, p.termsOfService),
		ManagedRegions:                       regions,
		MaxLeasesPerUser:                     p.client.IntFlag(ctx, p.maxLeasesPerUser),
		RequireMaxSpend:                      p.client.BoolFlag(ctx, p.requireMaxSpend),
		MaxBudget:                            maxBudget,
		MaxDurationHours:                     p.client.IntFlag(ctx, p.maxDurationHours),
		CleanupNumSuccessfulAttemptsToFinish: p.client.IntFlag(ctx, p.cleanupSuccess),
		CleanupNumFailedAttemptsToAbort:      p.client.IntFlag(ctx, p.cleanupFailed),
	}, nil
}
