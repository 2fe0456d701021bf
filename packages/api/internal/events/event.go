// Package events defines the lifecycle events the coordinator publishes and
// the dispatcher that delivers them.
package events

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is a tagged union: DetailType selects the concrete type of Detail.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Time       time.Time  `json:"time"`
	DetailType DetailType `json:"detailType"`
	Detail     Detail     `json:"detail"`
}

type rawEvent struct {
	ID         uuid.UUID       `json:"id"`
	Time       time.Time       `json:"time"`
	DetailType DetailType      `json:"detailType"`
	Detail     json.RawMessage `json:"detail"`
}

var decoders = map[DetailType]func([]byte) (Detail, error){
	LeaseRequestedType:              decoderFor[LeaseRequested](),
	LeaseApprovedType:               decoderFor[LeaseApproved](),
	LeaseDeniedType:                 decoderFor[LeaseDenied](),
	LeaseFrozenType:                 decoderFor[LeaseFrozen](),
	LeaseUnfrozenType:               decoderFor[LeaseUnfrozen](),
	LeaseTerminatedType:             decoderFor[LeaseTerminated](),
	LeaseExpiredType:                decoderFor[LeaseExpired](),
	LeaseBudgetThresholdAlertType:   decoderFor[LeaseBudgetThresholdAlert](),
	LeaseDurationThresholdAlertType: decoderFor[LeaseDurationThresholdAlert](),
	LeaseBudgetExceededType:         decoderFor[LeaseBudgetExceeded](),
	LeaseExpiredAlertType:           decoderFor[LeaseExpiredAlert](),
	CleanAccountRequestType:         decoderFor[CleanAccountRequest](),
	AccountCleanupSucceededType:     decoderFor[AccountCleanupSucceeded](),
	AccountCleanupFailedType:        decoderFor[AccountCleanupFailed](),
	AccountQuarantinedType:          decoderFor[AccountQuarantined](),
	AccountDriftDetectedType:        decoderFor[AccountDriftDetected](),
}

func decoderFor[T Detail]() func([]byte) (Detail, error) {
	return func(raw []byte) (Detail, error) {
		return parseDetail[T](raw)
	}
}

// parseDetail decodes strictly: unknown fields and failed validation are rejected.
func parseDetail[T Detail](raw []byte) (T, error) {
	var detail T

	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return detail, &ValidationError{DetailType: detail.DetailType(), Reason: "detail is missing"}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&detail); err != nil {
		return detail, &ValidationError{DetailType: detail.DetailType(), Reason: err.Error()}
	}

	if err := detail.Validate(); err != nil {
		return detail, &ValidationError{DetailType: detail.DetailType(), Reason: err.Error()}
	}

	return detail, nil
}

// ParseEvent validates an inbound event envelope and its payload.
func ParseEvent(raw []byte) (Event, error) {
	var envelope rawEvent
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Event{}, &ValidationError{Reason: err.Error()}
	}

	if envelope.ID == uuid.Nil {
		return Event{}, &ValidationError{DetailType: envelope.DetailType, Reason: "id is missing"}
	}

	decode, ok := decoders[envelope.DetailType]
	if !ok {
		return Event{}, &ValidationError{DetailType: envelope.DetailType, Reason: "unknown detail type"}
	}

	detail, err := decode(envelope.Detail)
	if err != nil {
		return Event{}, err
	}

	return Event{
		ID:         envelope.ID,
		Time:       envelope.Time,
		DetailType: envelope.DetailType,
		Detail:     detail,
	}, nil
}
