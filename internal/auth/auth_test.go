package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
)

func TestGenerateAndParse(t *testing.T) {
	a, err := NewAuthenticator("test-secret")
	require.NoError(t, err)

	token, err := a.GenerateToken(42, []string{"Admin", " student ", "admin"}, time.Hour)
	require.NoError(t, err)

	caller, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), caller.ID)
	assert.Equal(t, []string{"admin", "student"}, caller.Roles)
	assert.True(t, caller.IsAdmin())
}

func TestParseRejectsForeignSecret(t *testing.T) {
	a, err := NewAuthenticator("one")
	require.NoError(t, err)
	b, err := NewAuthenticator("two")
	require.NoError(t, err)

	token, err := a.GenerateToken(1, nil, time.Hour)
	require.NoError(t, err)

	_, err = b.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	a, err := NewAuthenticator("secret")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	a.now = func() time.Time { return past }
	token, err := a.GenerateToken(1, nil, time.Minute)
	require.NoError(t, err)

	a.now = func() time.Time { return time.Now().UTC() }
	_, err = a.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsNonNumericSubject(t *testing.T) {
	a, err := NewAuthenticator("secret")
	require.NoError(t, err)

	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = a.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	_, err := NewAuthenticator("   ")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)

	_, ok = BearerToken("")
	assert.False(t, ok)
}

func TestCallerContext(t *testing.T) {
	_, ok := CallerFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithCaller(context.Background(), model.Caller{ID: 7, Roles: []string{"ADMIN"}})
	caller, ok := CallerFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), caller.ID)
	assert.True(t, caller.IsAdmin())
}
