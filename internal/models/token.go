package models

import "time"

// TokenKind is the purpose of a security token.
type TokenKind string

const (
	KindVerify TokenKind = "VERIFY"
	KindReset  TokenKind = "RESET"
)

// SecurityToken is a single-use opaque token bound to an account. Verify
// tokens carry no expiry; reset tokens expire at ExpiresAt. At most one live
// token of a given kind exists per account.
type SecurityToken struct {
	ID        string
	AccountID string
	Kind      TokenKind
	Value     string
	ExpiresAt *time.Time
	IssuedAt  time.Time
}
