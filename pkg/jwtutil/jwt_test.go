package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: 1})

	token, err := j.GenerateToken("owner@example.com", 42)
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.BusinessOwnerID)
	assert.Equal(t, "owner@example.com", claims.Email)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	issuer := NewJWTUtil(&JWTConfig{SigningKey: "one", ExpirationHours: 1})
	verifier := NewJWTUtil(&JWTConfig{SigningKey: "two", ExpirationHours: 1})

	token, err := issuer.GenerateToken("owner@example.com", 1)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: 1})
	j.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }

	token, err := j.GenerateToken("owner@example.com", 1)
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestMissingConfig(t *testing.T) {
	j := NewJWTUtil(nil)

	_, err := j.GenerateToken("owner@example.com", 1)
	assert.Error(t, err)
	_, err = j.ValidateToken("anything")
	assert.Error(t, err)
}
