package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedevents "github.com/sandbox-pool/infra/packages/shared/pkg/events"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

var testLease = LeaseDetail{
	LeaseID:          "bGVhc2U",
	UserEmail:        "jane@example.com",
	UUID:             "0b5e3a6c-3f4e-4d7e-9a43-1c9a5e4e2f10",
	Status:           "Active",
	AwsAccountID:     "123456789012",
	TotalCostAccrued: decimal.NewFromInt(600),
}

func marshalEvent(t *testing.T, detail Detail) []byte {
	t.Helper()

	raw, err := json.Marshal(Event{ID: uuid.New(), Time: time.Now().UTC(), DetailType: detail.DetailType(), Detail: detail})
	require.NoError(t, err)

	return raw
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	raw := marshalEvent(t, LeaseApproved{Lease: testLease, ApprovedBy: "admin@example.com"})

	event, err := ParseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, LeaseApprovedType, event.DetailType)

	approved, ok := event.Detail.(LeaseApproved)
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", approved.ApprovedBy)
	assert.True(t, approved.Lease.TotalCostAccrued.Equal(decimal.NewFromInt(600)))
}

func TestParseEventFailsClosed(t *testing.T) {
	t.Parallel()

	id := uuid.New().String()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{`},
		{name: "missing id", raw: `{"detailType":"CleanAccountRequest","detail":{"awsAccountId":"123456789012","reason":"x"}}`},
		{name: "unknown type", raw: `{"id":"` + id + `","detailType":"LeaseExploded","detail":{}}`},
		{name: "missing detail", raw: `{"id":"` + id + `","detailType":"CleanAccountRequest"}`},
		{name: "unknown field", raw: `{"id":"` + id + `","detailType":"CleanAccountRequest","detail":{"awsAccountId":"123456789012","extra":true}}`},
		{name: "missing required field", raw: `{"id":"` + id + `","detailType":"AccountQuarantined","detail":{"awsAccountId":"123456789012"}}`},
		{name: "wrong field type", raw: `{"id":"` + id + `","detailType":"LeaseDurationThresholdAlert","detail":{"hoursRemaining":"soon"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseEvent([]byte(tt.raw))
			require.Error(t, err)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func newTestDispatcher(delivery sharedevents.Delivery[Event]) *Dispatcher {
	return NewDispatcher(delivery, WithRetry(utils.RetryConfig{Attempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}))
}

func TestDispatcherRetriesDelivery(t *testing.T) {
	t.Parallel()

	delivery := sharedevents.NewMemoryDelivery[Event]()
	delivery.FailNext(2, errors.New("stream unavailable"))

	d := newTestDispatcher(delivery)
	require.NoError(t, d.Publish(t.Context(), CleanAccountRequest{AwsAccountID: "123456789012", Reason: "expired"}))

	delivered := delivery.Delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, "123456789012", delivered[0].Key)
	assert.Equal(t, CleanAccountRequestType, delivered[0].Payload.DetailType)
	assert.NotEqual(t, uuid.Nil, delivered[0].Payload.ID)
}

func TestDispatcherReportsExhaustedDelivery(t *testing.T) {
	t.Parallel()

	delivery := sharedevents.NewMemoryDelivery[Event]()
	delivery.FailNext(3, errors.New("stream unavailable"))

	d := newTestDispatcher(delivery)
	err := d.Publish(t.Context(),
		AccountCleanupFailed{AwsAccountID: "123456789012"},
		AccountCleanupSucceeded{AwsAccountID: "210987654321"},
	)
	require.Error(t, err)

	// The second event still goes out.
	delivered := delivery.Delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, AccountCleanupSucceededType, delivered[0].Payload.DetailType)
}

func TestDispatcherRejectsInvalidDetail(t *testing.T) {
	t.Parallel()

	delivery := sharedevents.NewMemoryDelivery[Event]()
	d := newTestDispatcher(delivery)

	err := d.Publish(t.Context(), AccountQuarantined{AwsAccountID: "123456789012"})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, delivery.Delivered())
}
