package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordVerifier(t *testing.T) {
	v, err := NewPasswordVerifier("correct horse", "secret")
	require.NoError(t, err)

	assert.NoError(t, v.Check("correct horse"))
	assert.ErrorIs(t, v.Check("correct horse "), ErrInvalidPassword)
	assert.ErrorIs(t, v.Check(""), ErrInvalidPassword)
	assert.ErrorIs(t, v.Check("Correct horse"), ErrInvalidPassword)
}

func TestPasswordVerifier_RequiresPassword(t *testing.T) {
	_, err := NewPasswordVerifier("", "secret")
	assert.ErrorIs(t, err, ErrPasswordMissing)
}

func TestDeriveKey(t *testing.T) {
	a := deriveKey("secret", keyInfoSession)
	b := deriveKey("secret", keyInfoPassword)
	c := deriveKey("other", keyInfoSession)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, deriveKey("secret", keyInfoSession))
}

func TestGenerateSessionSecret(t *testing.T) {
	a, err := GenerateSessionSecret()
	require.NoError(t, err)
	b, err := GenerateSessionSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
