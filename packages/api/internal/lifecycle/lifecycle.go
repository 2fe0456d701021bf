// Package lifecycle holds what the account and lease state machines share.
package lifecycle

import (
	"errors"
	"fmt"
)

var ErrMaintenanceMode = errors.New("the pool is in maintenance mode")

// Transitions lists, per state, the states it may move to.
type Transitions[S ~string] map[S]map[S]bool

func (t Transitions[S]) Allowed(from, to S) bool {
	return t[from][to]
}

// Check returns an InvalidTransitionError when from -> to is not allowed.
func (t Transitions[S]) Check(kind, id string, from, to S) error {
	if t.Allowed(from, to) {
		return nil
	}

	return &InvalidTransitionError{Kind: kind, ID: id, From: string(from), To: string(to)}
}

type InvalidTransitionError struct {
	Kind string
	ID   string
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %q cannot move from %s to %s", e.Kind, e.ID, e.From, e.To)
}

// ValidationError is a rejected request or record shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError

	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError

	return errors.As(err, &target)
}
