// Package common defines shared constants and sentinel errors used across
// the engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Account lifecycle errors.
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Session errors.
	ErrCapacityExceeded = errors.New("session capacity exceeded")
	ErrInvalidSession   = errors.New("invalid session credential")

	// Ownership errors (access to another account's data).
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidPeriod   = errors.New("invalid period")
)
