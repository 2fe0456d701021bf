package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandbox-pool/infra/packages/api/internal/leases"
)

type fakeCostExplorer struct {
	pages  []*costexplorer.GetCostAndUsageOutput
	err    error
	inputs []costexplorer.GetCostAndUsageInput
}

func (f *fakeCostExplorer) GetCostAndUsage(_ context.Context, params *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	f.inputs = append(f.inputs, *params)
	if f.err != nil {
		return nil, f.err
	}

	return f.pages[len(f.inputs)-1], nil
}

func costPage(next string, amounts ...string) *costexplorer.GetCostAndUsageOutput {
	out := &costexplorer.GetCostAndUsageOutput{}
	if next != "" {
		out.NextPageToken = aws.String(next)
	}

	for _, amount := range amounts {
		out.ResultsByTime = append(out.ResultsByTime, types.ResultByTime{
			Total: map[string]types.MetricValue{costMetric: {Amount: aws.String(amount), Unit: aws.String("USD")}},
		})
	}

	return out
}

func TestCostExplorerSpend(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 2, 27, 9, 30, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lease := &leases.Lease{AwsAccountID: "123456789012", StartDate: &start}

	tests := []struct {
		name    string
		api     *fakeCostExplorer
		lease   *leases.Lease
		want    string
		wantErr bool
		calls   int
	}{
		{
			name:  "sums every page",
			api:   &fakeCostExplorer{pages: []*costexplorer.GetCostAndUsageOutput{costPage("next", "10.25", "4.50"), costPage("", "0.25")}},
			lease: lease,
			want:  "15",
			calls: 2,
		},
		{
			name:  "lease not started",
			api:   &fakeCostExplorer{},
			lease: &leases.Lease{AwsAccountID: "123456789012"},
			want:  "0",
		},
		{
			name:    "api failure",
			api:     &fakeCostExplorer{err: errors.New("throttled")},
			lease:   lease,
			wantErr: true,
			calls:   1,
		},
		{
			name:    "malformed amount",
			api:     &fakeCostExplorer{pages: []*costexplorer.GetCostAndUsageOutput{costPage("", "ten")}},
			lease:   lease,
			wantErr: true,
			calls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spend := &CostExplorerSpend{client: tt.api, now: func() time.Time { return now }}

			total, err := spend.TotalCost(t.Context(), tt.lease)
			assert.Len(t, tt.api.inputs, tt.calls)

			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(total), total.String())
		})
	}
}

func TestCostExplorerSpendQuery(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 2, 27, 9, 30, 0, 0, time.UTC)
	api := &fakeCostExplorer{pages: []*costexplorer.GetCostAndUsageOutput{costPage("", "1")}}
	spend := &CostExplorerSpend{client: api, now: func() time.Time { return time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC) }}

	_, err := spend.TotalCost(t.Context(), &leases.Lease{AwsAccountID: "123456789012", StartDate: &start})
	require.NoError(t, err)
	require.Len(t, api.inputs, 1)

	input := api.inputs[0]
	assert.Equal(t, "2026-02-27", aws.ToString(input.TimePeriod.Start))
	assert.Equal(t, "2026-03-02", aws.ToString(input.TimePeriod.End))
	assert.Equal(t, []string{costMetric}, input.Metrics)
	require.NotNil(t, input.Filter.Dimensions)
	assert.Equal(t, types.DimensionLinkedAccount, input.Filter.Dimensions.Key)
	assert.Equal(t, []string{"123456789012"}, input.Filter.Dimensions.Values)
}
