// Package auth mints and parses the signed session credentials handed to the
// web layer after a successful login.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"smartspend/internal/common"
)

// Claims carries the standard registered claims plus the account and session
// identity of the holder.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string
	SessionID string
}

// GenerateToken signs an HS256 credential for the given account and session.
func GenerateToken(accountID, sessionID string, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		AccountID: accountID,
		SessionID: sessionID,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates the signature and expiry and returns the embedded
// account and session identifiers.
func ParseToken(tokenString string, secretKey []byte) (accountID, sessionID string, err error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", common.ErrInvalidSession
	}

	return claims.AccountID, claims.SessionID, nil
}
