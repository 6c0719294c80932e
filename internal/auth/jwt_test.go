package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("inspector-secret")

func TestIssueAdminToken(t *testing.T) {
	token, err := IssueAdminToken(secret, "ops", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "JWT состоит из трёх частей")

	claims, err := ValidateAdminToken(secret, token)
	require.NoError(t, err)
	assert.True(t, claims.Admin)
	assert.Equal(t, "ops", claims.Subject)

	_, err = IssueAdminToken(nil, "ops", time.Hour)
	assert.Error(t, err)
}

func TestValidateAdminToken_Rejects(t *testing.T) {
	token, err := IssueAdminToken(secret, "ops", time.Hour)
	require.NoError(t, err)

	_, err = ValidateAdminToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken, "чужой секрет")

	expired, err := IssueAdminToken(secret, "ops", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateAdminToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken, "истёкший токен")

	_, err = ValidateAdminToken(secret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	plain := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "guest"},
	})
	signed, err := plain.SignedString(secret)
	require.NoError(t, err)
	_, err = ValidateAdminToken(secret, signed)
	assert.ErrorIs(t, err, ErrInvalidToken, "без признака администратора")
}
