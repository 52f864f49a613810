package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsAllFailures(t *testing.T) {
	v := NewValidator()
	v.Field("username", "Al", Required, Username).
		Field("password", "short", MinLength(8)).
		Field("role", "root", OneOf("admin", "supervisor"))

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)

	err := v.Error()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "password")
	assert.Contains(t, err.Error(), "must be one of: admin, supervisor")
}

func TestValidatorPasses(t *testing.T) {
	v := NewValidator()
	v.Field("username", "jperez", Required, Username, MaxLength(64)).
		Field("full_name", "Juan Pérez", MaxLength(128))

	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
	assert.Empty(t, v.ErrorMessage())
}

func TestRequiredRejectsBlank(t *testing.T) {
	blank := "   "
	assert.NotNil(t, Required("name", ""))
	assert.NotNil(t, Required("name", &blank))
	assert.NotNil(t, Required("name", nil))
	assert.Nil(t, Required("name", "x"))
}
