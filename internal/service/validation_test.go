package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type validationSample struct {
	Email  string `json:"email" validate:"required,email"`
	Role   string `json:"role" validate:"required,role"`
	Status string `json:"status" validate:"omitempty,attendance_status"`
	Day    string `json:"day" validate:"omitempty,isodate"`
}

func TestValidatorCustomTags(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(validationSample{Email: "a@b.co", Role: "parent", Status: "late", Day: "2024-02-29"}))

	err := v.Struct(validationSample{Email: "a@b.co", Role: "superadmin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "role must be one of admin, teacher, parent, student", appErrors.FromError(err).Message)

	err = v.Struct(validationSample{Email: "a@b.co", Role: "admin", Status: "sick"})
	assert.Equal(t, "status must be one of present, absent, late, excused", appErrors.FromError(err).Message)

	err = v.Struct(validationSample{Email: "a@b.co", Role: "admin", Day: "03/06/2024"})
	assert.Equal(t, "day must be a date in YYYY-MM-DD format", appErrors.FromError(err).Message)
}

func TestValidatorUsesJSONNames(t *testing.T) {
	err := NewValidator().Struct(validationSample{Role: "admin"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "email")
}
