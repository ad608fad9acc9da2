package internal

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	challengeSecretSize   = 32 // 256 bits, well above the 128-bit floor
	placeholderSecretSize = 20
)

// NewChallengeToken returns a hex-encoded random verification token.
func NewChallengeToken() (string, error) {
	return randomHex(challengeSecretSize)
}

// NewPlaceholderSecret returns random hex suitable as an unusable password
// for federation-created accounts: the hash of this value is stored, the
// plaintext is discarded, so password login stays impossible until an
// explicit password change.
func NewPlaceholderSecret() (string, error) {
	return randomHex(placeholderSecretSize)
}

func randomHex(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// UsernameFromAssertion derives a username from a provider identity
// assertion: the asserted display name when present, otherwise the local part
// of the email address.
func UsernameFromAssertion(name, email string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	local, _, found := strings.Cut(email, "@")
	if found && local != "" {
		return local
	}
	return email
}
