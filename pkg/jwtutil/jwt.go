package jwtutil

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped on every token and required on validation.
const Issuer = "fixly"

var (
	ErrNoConfig    = errors.New("JWT configuration not provided")
	ErrNoWorkshop  = errors.New("token has no workshop")
	ErrInvalidToken = errors.New("invalid token")
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// UserClaims represents the JWT claims for a workshop user. WorkshopID is the
// tenant every authenticated request is scoped to.
type UserClaims struct {
	Email      string `json:"email"`
	UserID     uint   `json:"user_id"`
	WorkshopID uint   `json:"workshop_id"`
	jwt.RegisteredClaims
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: config,
	}
}

// GenerateToken signs an HS256 token for userID acting within workshopID.
func (j *JWTUtil) GenerateToken(email string, userID, workshopID uint) (string, error) {
	if j.config == nil {
		return "", ErrNoConfig
	}

	now := time.Now()
	claims := UserClaims{
		Email:      email,
		UserID:     userID,
		WorkshopID: workshopID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken parses tokenString and returns its claims. Tokens without a
// workshop are rejected since every API call is tenant-scoped.
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil {
		return nil, ErrNoConfig
	}

	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return []byte(j.config.SigningKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.WorkshopID == 0 {
		return nil, ErrNoWorkshop
	}
	return claims, nil
}
