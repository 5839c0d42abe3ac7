// Package security provides the password hashing primitive used by
// authentication. Callers must not log or persist plaintext passwords.
package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMismatch is returned by Verify when the password does not match
	// the stored hash.
	ErrMismatch = errors.New("password mismatch")

	// ErrMalformedHash is returned by Verify when the stored hash is not a
	// well-formed bcrypt value. This indicates data corruption, not a bad
	// password, and should be surfaced as an operational alarm.
	ErrMalformedHash = errors.New("malformed credential hash")
)

// Hasher hashes and verifies passwords using bcrypt. bcrypt embeds the
// algorithm version, cost, and a per-call random salt in its output, so
// stored hashes are self-describing.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to the
// valid range. Cost 0 selects the bcrypt default.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Hash produces a bcrypt hash of password, salted with fresh randomness on
// every call. Two calls with the same password yield different outputs.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares password against the stored hash in constant time.
// It returns nil on a match, ErrMismatch when the password is wrong, and
// ErrMalformedHash when the stored value is not valid bcrypt output.
func (h *Hasher) Verify(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return ErrMalformedHash
	}
}
