package store

import (
	"errors"
	"fmt"
)

var ErrInvalidPageIdentifier = errors.New("invalid page identifier")

type UnknownItemError struct {
	Namespace string
	Key       Key
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Namespace, e.Key.String())
}

type ItemAlreadyExistsError struct {
	Namespace string
	Key       Key
}

func (e *ItemAlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Namespace, e.Key.String())
}

// ConcurrentDataModificationError means the stored record changed since the
// writer read it. Always retryable by re-reading and reapplying.
type ConcurrentDataModificationError struct {
	Namespace string
	Key       Key
}

func (e *ConcurrentDataModificationError) Error() string {
	return fmt.Sprintf("%s %q was modified concurrently", e.Namespace, e.Key.String())
}

type SchemaMismatchError struct {
	Namespace string
	Key       Key
	Expected  int
	Actual    int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s %q has schema version %d, expected %d", e.Namespace, e.Key.String(), e.Actual, e.Expected)
}

func IsNotFound(err error) bool {
	var target *UnknownItemError

	return errors.As(err, &target)
}

func IsAlreadyExists(err error) bool {
	var target *ItemAlreadyExistsError

	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConcurrentDataModificationError

	return errors.As(err, &target)
}

func IsSchemaMismatch(err error) bool {
	var target *SchemaMismatchError

	return errors.As(err, &target)
}
