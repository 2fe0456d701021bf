package lifecycle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type light string

func TestTransitionsCheck(t *testing.T) {
	t.Parallel()

	transitions := Transitions[light]{
		"red":   {"green": true},
		"green": {"amber": true},
		"amber": {"red": true},
	}

	require.NoError(t, transitions.Check("light", "l1", "red", "green"))

	err := transitions.Check("light", "l1", "red", "amber")
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
	assert.True(t, IsInvalidTransition(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, `light "l1" cannot move from red to amber`, err.Error())

	assert.False(t, transitions.Allowed("blue", "red"))
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := Invalid("maxSpend", "must be positive, got %d", -1)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "maxSpend: must be positive, got -1", err.Error())
}
