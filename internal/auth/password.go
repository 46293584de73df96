// Package auth issues and checks the credentials that identify a user:
// password digests and signed session tokens.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordDigest computes and checks one-way salted password digests.
type PasswordDigest interface {
	// Hash returns a salted digest of secret.
	Hash(secret string) (string, error)

	// Verify reports whether secret matches digest. Malformed digests
	// never match.
	Verify(secret, digest string) bool
}

// BcryptDigest implements PasswordDigest with bcrypt.
type BcryptDigest struct {
	cost int
}

// NewBcryptDigest creates a BcryptDigest. Costs outside bcrypt's range fall
// back to bcrypt.DefaultCost.
func NewBcryptDigest(cost int) *BcryptDigest {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptDigest{cost: cost}
}

// Hash produces a bcrypt digest of secret.
func (d *BcryptDigest) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), d.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks secret against a bcrypt digest.
func (d *BcryptDigest) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
