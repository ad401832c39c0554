package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-signing-secret-32-bytes-long!"

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, false)

	token, expiry, err := svc.GenerateToken(Identity{
		UID:   "user-1",
		Email: "user@example.com",
		Name:  "Test User",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Greater(t, expiry, time.Now().Unix())

	id, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UID)
	assert.Equal(t, "user@example.com", id.Email)
	assert.Equal(t, "Test User", id.Name)
}

func TestGenerateTokenRequiresUID(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, false)
	_, _, err := svc.GenerateToken(Identity{Email: "user@example.com"})
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewTokenService(testSecret, -time.Minute, false)
	token, _, err := svc.GenerateToken(Identity{UID: "user-1"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService(testSecret, time.Hour, false)
	verifier := NewTokenService("a-completely-different-signing-secret!!", time.Hour, false)

	token, _, err := issuer.GenerateToken(Identity{UID: "user-1"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, false)
	_, err := svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseDevToken(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, true)

	id, err := svc.ParseDevToken("dev_abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id.UID)
	assert.NotEmpty(t, id.Email)

	// The uid is everything after the prefix, underscores included.
	id, err = svc.ParseDevToken("dev_user_42")
	require.NoError(t, err)
	assert.Equal(t, "user_42", id.UID)
}

func TestParseDevTokenRejectsEmptyUID(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, true)
	_, err := svc.ParseDevToken("dev_")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseDevTokenDisabled(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, false)
	_, err := svc.ParseDevToken("dev_abc123")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIsDevToken(t *testing.T) {
	assert.True(t, IsDevToken("dev_abc"))
	assert.False(t, IsDevToken("eyJhbGciOi"))
	assert.False(t, IsDevToken(""))
}
