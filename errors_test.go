package schemaguard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeError_UnwrapSupportsErrorsIs(t *testing.T) {
	de := NewDecodeError(ErrNoValidTokens, "nam", 3, "")
	assert.True(t, errors.Is(de, ErrNoValidTokens))
	assert.False(t, errors.Is(de, ErrSchemaViolation))
}

func TestDecodeError_ErrorMessageVariants(t *testing.T) {
	withKey := NewDecodeError(ErrInvalidTokenSelected, "ag", 2, "token id 7")
	assert.Contains(t, withKey.Error(), `"ag"`)
	assert.Contains(t, withKey.Error(), "token id 7")

	withDetailOnly := NewDecodeError(ErrSchemaViolation, "", 0, "key \"extra\" not declared")
	assert.Contains(t, withDetailOnly.Error(), "key \"extra\" not declared")

	bare := NewDecodeError(ErrEmptyConstraints, "", 0, "")
	assert.NotContains(t, bare.Error(), "()")
}

func TestDecodeError_LocalizeFallsBackWithoutLocalizer(t *testing.T) {
	de := NewDecodeError(ErrNoValidTokens, "na", 1, "")
	assert.Equal(t, de.Error(), de.Localize(nil))
}

func TestDecodeError_LocalizeUsesBundle(t *testing.T) {
	bundle, err := GetI18n()
	require.NoError(t, err)
	localizer := bundle.Localizer("en")

	de := NewDecodeError(ErrNoValidTokens, "nam", 4, "")
	msg := de.Localize(localizer)
	assert.Contains(t, msg, "nam")
	assert.Contains(t, msg, "4")
}

func TestErrorCode_MapsEverySentinel(t *testing.T) {
	cases := map[error]string{
		ErrNoValidTokens:        "no_valid_tokens",
		ErrInvalidTokenSelected: "invalid_token_selected",
		ErrEmptyConstraints:     "empty_constraints",
		ErrSchemaViolation:      "schema_violation",
	}
	for kind, code := range cases {
		assert.Equal(t, code, errorCode(kind))
	}
	assert.Equal(t, "unknown_error", errorCode(errors.New("something else")))
}
