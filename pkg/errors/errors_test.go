package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrValidation, "Student ID already exists")
	wrapped := fmt.Errorf("create: %w", err)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, "Student ID already exists", err.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
	assert.Nil(t, FromError(nil))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Internal(cause, "failed to mark attendance")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to mark attendance: boom", err.Error())
}
