// File: internal/auth/jwt_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("u1", secret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := ValidateToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", subject)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("u1", []byte("secret-a"))
	require.NoError(t, err)

	_, err = ValidateToken(token, []byte("secret-b"))
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-token", []byte("secret"))
	assert.Error(t, err)
}

func TestGenerateTokenRequiresSubject(t *testing.T) {
	_, err := GenerateToken("", []byte("secret"))
	assert.Error(t, err)
}
