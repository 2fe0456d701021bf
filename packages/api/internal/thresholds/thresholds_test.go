package thresholds

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestBudgetSequenceFiresEachThresholdOnce(t *testing.T) {
	t.Parallel()

	ts := []BudgetThreshold{
		{DollarsSpent: usd(100), Action: ActionAlert},
		{DollarsSpent: usd(500), Action: ActionReclaim},
	}

	crossed := EvaluateBudget(ts, usd(0))
	assert.Empty(t, crossed)
	assert.False(t, Resolve(crossed).Fired())

	crossed = EvaluateBudget(ts, usd(150))
	require.Equal(t, []Crossed{{Kind: KindBudget, Index: 0, Action: ActionAlert}}, crossed)

	res := Resolve(crossed)
	assert.Equal(t, ActionAlert, res.Effective)
	assert.Equal(t, crossed, res.Reported)
	ts = MarkBudget(ts, res.Triggered)
	assert.True(t, ts[0].AlreadyTriggered)
	assert.False(t, ts[1].AlreadyTriggered)

	crossed = EvaluateBudget(ts, usd(600))
	require.Equal(t, []Crossed{{Kind: KindBudget, Index: 1, Action: ActionReclaim}}, crossed)
	assert.Equal(t, ActionReclaim, Resolve(crossed).Effective)
}

func TestEvaluationIsIdempotentOnceMarked(t *testing.T) {
	t.Parallel()

	ts := []BudgetThreshold{{DollarsSpent: usd(100), Action: ActionFreeze}}

	res := Resolve(EvaluateBudget(ts, usd(120)))
	require.True(t, res.Fired())

	ts = MarkBudget(ts, res.Triggered)
	for range 3 {
		assert.Empty(t, EvaluateBudget(ts, usd(10_000)))
	}
}

func TestReclaimSuppressesLowerActions(t *testing.T) {
	t.Parallel()

	ts := []BudgetThreshold{
		{DollarsSpent: usd(100), Action: ActionAlert},
		{DollarsSpent: usd(200), Action: ActionFreeze},
		{DollarsSpent: usd(300), Action: ActionReclaim},
	}

	crossed := EvaluateBudget(ts, usd(1000))
	require.Len(t, crossed, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{crossed[0].Index, crossed[1].Index, crossed[2].Index})

	res := Resolve(crossed)
	assert.Equal(t, ActionReclaim, res.Effective)
	assert.Equal(t, []Crossed{{Kind: KindBudget, Index: 2, Action: ActionReclaim}}, res.Reported)
	assert.Len(t, res.Triggered, 3)

	marked := MarkBudget(ts, res.Triggered)
	for _, m := range marked {
		assert.True(t, m.AlreadyTriggered)
	}

	// The input is left untouched.
	assert.False(t, ts[0].AlreadyTriggered)
}

func TestEvaluateDuration(t *testing.T) {
	t.Parallel()

	ts := []DurationThreshold{
		{HoursRemaining: 24, Action: ActionAlert},
		{HoursRemaining: 4, Action: ActionFreeze},
		{HoursRemaining: 0, Action: ActionReclaim},
	}

	tests := []struct {
		name           string
		hoursRemaining float64
		want           []int
		effective      Action
	}{
		{name: "well before expiry", hoursRemaining: 72, want: []int{}},
		{name: "exactly at first threshold", hoursRemaining: 24, want: []int{0}, effective: ActionAlert},
		{name: "between thresholds", hoursRemaining: 3.5, want: []int{0, 1}, effective: ActionFreeze},
		{name: "past expiry", hoursRemaining: -1, want: []int{0, 1, 2}, effective: ActionReclaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			crossed := EvaluateDuration(ts, tt.hoursRemaining)

			got := make([]int, 0, len(crossed))
			for _, c := range crossed {
				assert.Equal(t, KindDuration, c.Kind)
				got = append(got, c.Index)
			}

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.effective, Resolve(crossed).Effective)
		})
	}
}

func TestResolveCombinesBudgetAndDuration(t *testing.T) {
	t.Parallel()

	budget := []Crossed{{Kind: KindBudget, Index: 0, Action: ActionAlert}}
	duration := []Crossed{{Kind: KindDuration, Index: 1, Action: ActionFreeze}}

	res := Resolve(budget, duration)
	assert.Equal(t, ActionFreeze, res.Effective)
	assert.Len(t, res.Reported, 2)

	assert.True(t, MarkDuration([]DurationThreshold{{HoursRemaining: 8}, {HoursRemaining: 2}}, res.Triggered)[1].AlreadyTriggered)
	assert.False(t, MarkDuration([]DurationThreshold{{HoursRemaining: 8}, {HoursRemaining: 2}}, res.Triggered)[0].AlreadyTriggered)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateBudget([]BudgetThreshold{{DollarsSpent: usd(1), Action: ActionAlert}, {DollarsSpent: usd(2), Action: ActionReclaim}}))
	require.Error(t, ValidateBudget([]BudgetThreshold{{DollarsSpent: usd(2), Action: ActionAlert}, {DollarsSpent: usd(2), Action: ActionReclaim}}))
	require.Error(t, ValidateBudget([]BudgetThreshold{{DollarsSpent: usd(-1), Action: ActionAlert}}))
	require.Error(t, ValidateBudget([]BudgetThreshold{{DollarsSpent: usd(1), Action: "EXPLODE"}}))

	require.NoError(t, ValidateDuration([]DurationThreshold{{HoursRemaining: 24, Action: ActionAlert}, {HoursRemaining: 0, Action: ActionReclaim}}))
	require.Error(t, ValidateDuration([]DurationThreshold{{HoursRemaining: 0, Action: ActionAlert}, {HoursRemaining: 24, Action: ActionReclaim}}))

	sorted := SortBudget([]BudgetThreshold{{DollarsSpent: usd(500), Action: ActionReclaim}, {DollarsSpent: usd(100), Action: ActionAlert}})
	require.NoError(t, ValidateBudget(sorted))

	sortedDuration := SortDuration([]DurationThreshold{{HoursRemaining: 1, Action: ActionReclaim}, {HoursRemaining: 12, Action: ActionAlert}})
	require.NoError(t, ValidateDuration(sortedDuration))
}
