package utils

func ToPtr[T any](v T) *T {
	return &v
}

// FromPtr returns the zero value for nil.
func FromPtr[T any](v *T) T {
	if v == nil {
		var zero T

		return zero
	}

	return *v
}
