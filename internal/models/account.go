// Package models defines the entities managed by the engine.
package models

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Account is a registered identity. Email is unique; unverified accounts
// cannot authenticate.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Verified     bool
	CreatedAt    time.Time
}
