package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor applied when Config.Cost is zero.
	DefaultCost = 10

	minPassBytes = 1
	maxPassBytes = 72 // bcrypt truncates beyond 72 bytes; reject instead
)

// ErrCorruptHash reports a stored hash that is not a parseable bcrypt string.
// It signals a data-integrity fault on the record, not a wrong password.
var ErrCorruptHash = errors.New("corrupt password hash")

// Config holds hashing parameters.
type Config struct {
	Cost int
}

// Hasher hashes and verifies passwords with a fixed work factor. Instances
// are immutable and safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher validates the configured cost against bcrypt's legal range.
func NewHasher(cfg Config) (*Hasher, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash derives a salted bcrypt hash of the plaintext. Password bytes are used
// exactly as provided (no Unicode normalization).
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) < minPassBytes {
		return "", errors.New("empty password")
	}
	if len(plaintext) > maxPassBytes {
		return "", fmt.Errorf("password exceeds %d bytes", maxPassBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch is
// (false, nil); only a malformed stored hash produces an error, wrapped in
// [ErrCorruptHash].
func (h *Hasher) Verify(plaintext, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrCorruptHash, err)
	}
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// NeedsRehash reports whether the stored hash was produced with a weaker work
// factor than currently configured, so the caller can re-hash on the next
// successful login.
func (h *Hasher) NeedsRehash(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCorruptHash, err)
	}
	return cost < h.cost, nil
}
