package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserErrorMessage(t *testing.T) {
	err := NewUserError("export is not configured", ErrMissingConfig)

	assert.Equal(t, "export is not configured: missing configuration", err.Error())
	assert.ErrorIs(t, err, ErrMissingConfig)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "export is not configured", userErr.UserMessage)
}

func TestUserErrorWithoutCause(t *testing.T) {
	err := &UserError{UserMessage: "nothing to export"}

	assert.Equal(t, "nothing to export", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestUserErrorSurvivesWrapping(t *testing.T) {
	inner := NewUserError("sheets auth failed", ErrInvalidConfig)
	wrapped := fmt.Errorf("failed to export: %w", inner)

	var userErr *UserError
	require.ErrorAs(t, wrapped, &userErr)
	assert.Equal(t, "sheets auth failed", userErr.UserMessage)
	assert.True(t, errors.Is(wrapped, ErrInvalidConfig))
}
