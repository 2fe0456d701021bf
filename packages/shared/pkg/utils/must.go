package utils

// Must panics on error. Only for process startup.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}

	return v
}
