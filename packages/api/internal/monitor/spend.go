package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/shopspring/decimal"

	"github.com/sandbox-pool/infra/packages/api/internal/leases"
)

const (
	// Cost Explorer only serves from us-east-1.
	costExplorerRegion = "us-east-1"
	costMetric         = "UnblendedCost"
	costDateLayout     = "2006-01-02"
)

type costExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// CostExplorerSpend reads a lease's spend as the unblended cost of its
// account since the lease started.
type CostExplorerSpend struct {
	client costExplorerAPI
	now    func() time.Time
}

var _ SpendSource = (*CostExplorerSpend)(nil)

func NewCostExplorerSpend(cfg aws.Config) *CostExplorerSpend {
	client := costexplorer.NewFromConfig(cfg, func(o *costexplorer.Options) {
		o.Region = costExplorerRegion
	})

	return &CostExplorerSpend{client: client, now: time.Now}
}

func (s *CostExplorerSpend) TotalCost(ctx context.Context, lease *leases.Lease) (decimal.Decimal, error) {
	if lease.StartDate == nil || lease.AwsAccountID == "" {
		return decimal.Zero, nil
	}

	start := lease.StartDate.UTC().Format(costDateLayout)
	// End is exclusive, tomorrow includes today's partial cost.
	end := s.now().UTC().AddDate(0, 0, 1).Format(costDateLayout)

	input := &costexplorer.GetCostAndUsageInput{
		Granularity: types.GranularityMonthly,
		Metrics:     []string{costMetric},
		TimePeriod:  &types.DateInterval{Start: aws.String(start), End: aws.String(end)},
		Filter: &types.Expression{
			Dimensions: &types.DimensionValues{
				Key:    types.DimensionLinkedAccount,
				Values: []string{lease.AwsAccountID},
			},
		},
	}

	total := decimal.Zero

	for {
		out, err := s.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get cost of account %s: %w", lease.AwsAccountID, err)
		}

		for _, result := range out.ResultsByTime {
			metric, ok := result.Total[costMetric]
			if !ok || metric.Amount == nil {
				continue
			}

			amount, err := decimal.NewFromString(*metric.Amount)
			if err != nil {
				return decimal.Zero, fmt.Errorf("malformed cost %q for account %s: %w", *metric.Amount, lease.AwsAccountID, err)
			}

			total = total.Add(amount)
		}

		if aws.ToString(out.NextPageToken) == "" {
			return total, nil
		}

		input.NextPageToken = out.NextPageToken
	}
}
