package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleClaims() Claims {
	return Claims{ID: 7, UserID: "earthling", Role: "USER", Name: "지구인"}
}

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret-key", time.Hour)

	raw, err := svc.Generate(sampleClaims())
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	claims, err := svc.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.ID)
	assert.Equal(t, "earthling", claims.UserID)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Equal(t, "7", claims.Subject)
}

func TestValidate_Expired(t *testing.T) {
	svc := NewService("test-secret-key", time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := svc.Generate(sampleClaims())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(raw)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	raw, err := NewService("secret-key-1", time.Hour).Generate(sampleClaims())
	require.NoError(t, err)

	_, err = NewService("secret-key-2", time.Hour).Validate(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate_Garbage(t *testing.T) {
	_, err := NewService("k", time.Hour).Validate("invalid-token")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNewService_DefaultTTL(t *testing.T) {
	assert.Equal(t, time.Hour, NewService("k", 0).TTL())
}
