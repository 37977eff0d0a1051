// Package auth provides JWT issuance/validation and argon2id password
// hashing for the API surface.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by every webforge token.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService signs and validates access and refresh tokens.
type JWTService struct {
	secretKey []byte
	issuer    string
	accessTTL time.Duration
}

const refreshTTL = 7 * 24 * time.Hour

// NewJWTService creates a token service. accessTTL bounds the access
// token lifetime.
func NewJWTService(secretKey, issuer string, accessTTL time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// GenerateTokens creates both access and refresh tokens.
func (j *JWTService) GenerateTokens(userID uint, username, email string) (accessToken, refreshToken string, err error) {
	accessToken, err = j.sign(userID, username, email, j.accessTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = j.sign(userID, username, email, refreshTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (j *JWTService) sign(userID uint, username, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    j.issuer,
			Subject:   username,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
}

// ValidateToken parses and verifies a token, returning its claims.
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RefreshAccessToken exchanges a valid refresh token for a new access
// token.
func (j *JWTService) RefreshAccessToken(refreshToken string) (string, error) {
	claims, err := j.ValidateToken(refreshToken)
	if err != nil {
		return "", err
	}
	return j.sign(claims.UserID, claims.Username, claims.Email, j.accessTTL)
}
