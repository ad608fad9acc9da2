// Package account defines the identity record shared by the engine, the
// verification ledger, the federation flow, and the shipped Repository
// implementations.
package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Repository lookups that match no account.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by Repository.Create when the email is
	// already taken.
	ErrDuplicateEmail = errors.New("account email already exists")
	// ErrNoLiveChallenge is returned by
	// Repository.ClearVerificationAndMarkVerified when the account holds no
	// live verification challenge. The compare-and-swap failure is what keeps
	// two concurrent redemptions of the same token from both succeeding.
	ErrNoLiveChallenge = errors.New("account has no live verification challenge")
)

// Account is a user identity record, the unit of authentication.
//
// Invariants maintained by Repository implementations:
//   - Email is globally unique and stored case-normalized.
//   - VerificationToken, when set, is globally unique and always paired with
//     a non-zero VerificationExpiresAt.
//   - EmailVerified == true implies VerificationToken == "" and
//     VerificationExpiresAt is zero.
type Account struct {
	ID                    string
	Email                 string
	Username              string
	PasswordHash          string
	EmailVerified         bool
	VerificationToken     string
	VerificationExpiresAt time.Time
	FederatedID           string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasLiveChallenge reports whether a verification challenge is currently
// stored on the account. Expiry is not checked here; the ledger checks it
// explicitly on redemption.
func (a *Account) HasLiveChallenge() bool {
	return a != nil && a.VerificationToken != ""
}

// CreateInput carries the fields for Repository.Create. ID and timestamps are
// assigned by the repository.
type CreateInput struct {
	Email         string
	Username      string
	PasswordHash  string
	EmailVerified bool
	FederatedID   string
}

// Repository is the persistence collaborator consumed by the engine. It is
// deliberately small: upsert-free creation, two lookups, and the verification
// challenge triple. SetVerificationChallenge and
// ClearVerificationAndMarkVerified must each be atomic at the store
// (single-document transaction or equivalent), so that challenge issuance and
// redemption cannot interleave into a half-updated record.
type Repository interface {
	// FindByEmail returns the account with the given case-normalized email,
	// or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// FindByID returns the account with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Account, error)
	// Create persists a new account, failing with ErrDuplicateEmail when the
	// email is taken.
	Create(ctx context.Context, input CreateInput) (*Account, error)
	// SetVerificationChallenge stores token+expiry on the account,
	// overwriting any prior live challenge.
	SetVerificationChallenge(ctx context.Context, accountID, token string, expiresAt time.Time) error
	// FindByVerificationToken returns the account currently holding the
	// token, or ErrNotFound. Expiry is the caller's check.
	FindByVerificationToken(ctx context.Context, token string) (*Account, error)
	// ClearVerificationAndMarkVerified atomically sets EmailVerified and
	// clears token+expiry. It fails with ErrNoLiveChallenge when the
	// challenge was already consumed or replaced.
	ClearVerificationAndMarkVerified(ctx context.Context, accountID string) error
}

// NormalizeEmail lowercases and trims an address so that repository lookups
// and uniqueness are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address parses as an RFC 5322 address.
func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
