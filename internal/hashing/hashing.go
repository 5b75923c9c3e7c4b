// Package hashing abstracts one-way credential hashing so the concrete
// algorithm stays pluggable.
package hashing

import "golang.org/x/crypto/bcrypt"

// Hasher hashes raw passwords and verifies candidates against stored hashes.
type Hasher interface {
	Hash(raw string) (string, error)
	Verify(raw, hash string) bool
}

// Bcrypt is the default Hasher.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt Hasher. A cost of 0 selects bcrypt's default.
func NewBcrypt(cost int) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (b *Bcrypt) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
