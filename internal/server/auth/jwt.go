// Package auth issues and verifies the admin session tokens.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cdsvote/cdsvote/internal/common"
)

// Claims carries the standard registered claims plus the admin name the
// token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	AdminName string
}

func GenerateToken(adminName string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		AdminName: adminName,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func GetAdminFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.AdminName, nil
}
