// Package auth issues and verifies the JWT access tokens used by the admin
// API and hashes admin passwords.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"schoolmedia/internal/common"
)

// Claims carries the standard registered claims plus the admin's user id and
// name.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	UserName string `json:"name"`
}

// GenerateToken signs an HS256 access token for the admin account.
func GenerateToken(userID, userName string, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   userID,
		UserName: userName,
	})
	return token.SignedString(secretKey)
}

// ParseToken verifies the token signature and expiry and returns its claims.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
