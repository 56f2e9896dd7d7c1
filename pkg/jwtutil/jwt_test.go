package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "k", ExpirationHours: 1})

	token, err := j.GenerateToken("owner@shop.test", 3, 9)
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "owner@shop.test", claims.Email)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, uint(9), claims.WorkshopID)
	assert.Equal(t, "3", claims.Subject)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	token, err := NewJWTUtil(&JWTConfig{SigningKey: "a", ExpirationHours: 1}).GenerateToken("x@y.z", 1, 1)
	require.NoError(t, err)

	_, err = NewJWTUtil(&JWTConfig{SigningKey: "b", ExpirationHours: 1}).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "k", ExpirationHours: -1})
	token, err := j.GenerateToken("x@y.z", 1, 1)
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRequiresWorkshop(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "k", ExpirationHours: 1})
	token, err := j.GenerateToken("x@y.z", 1, 0)
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.ErrorIs(t, err, ErrNoWorkshop)
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	claims := UserClaims{
		UserID:     1,
		WorkshopID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewJWTUtil(&JWTConfig{SigningKey: "k", ExpirationHours: 1}).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestNilConfig(t *testing.T) {
	_, err := NewJWTUtil(nil).GenerateToken("x@y.z", 1, 1)
	assert.ErrorIs(t, err, ErrNoConfig)
}
