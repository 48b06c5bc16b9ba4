package remote

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signToken(t, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})

	got, err := TokenExpiry(token)
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))

	assert.False(t, TokenExpired(token, exp.Add(-time.Hour)))
	assert.True(t, TokenExpired(token, exp))
	assert.True(t, TokenExpired(token, exp.Add(time.Hour)))
}

func TestTokenWithoutExpiry(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "u1"})

	_, err := TokenExpiry(token)
	assert.ErrorIs(t, err, ErrNoExpiry)
	assert.False(t, TokenExpired(token, time.Now()))
}

func TestMalformedToken(t *testing.T) {
	_, err := TokenExpiry("not-a-jwt")
	assert.Error(t, err)
	assert.True(t, TokenExpired("not-a-jwt", time.Now()))
}
