// Package cryptox holds the server's one-way primitives: bcrypt password
// hashing and SHA-256 digests of refresh tokens.
package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost balances login latency against brute-force cost.
const DefaultBcryptCost = 10

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash (over 72 bytes).
var ErrPasswordTooLong = errors.New("password is too long")

// PasswordHasher hashes and verifies passwords. Verify never fails loudly:
// a malformed hash is simply a mismatch.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) bool
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// BcryptHasher is a salted bcrypt PasswordHasher with a fixed cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. Out-of-range costs fall
// back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int { return h.cost }

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
