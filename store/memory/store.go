// Package memory is an in-memory account.Repository for tests and examples.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solvrex/authforge/account"
)

// Store holds accounts in process memory behind one mutex. Returned records
// are copies; mutate them freely.
type Store struct {
	mu      sync.Mutex
	byID    map[string]*account.Account
	byEmail map[string]string
	byToken map[string]string

	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*account.Account),
		byEmail: make(map[string]string),
		byToken: make(map[string]string),
		now:     time.Now,
	}
}

// WithClock overrides the timestamp source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func copyAccount(a *account.Account) *account.Account {
	cp := *a
	return &cp
}

// FindByEmail implements account.Repository.
func (s *Store) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, account.ErrNotFound
	}
	return copyAccount(s.byID[id]), nil
}

// FindByID implements account.Repository.
func (s *Store) FindByID(_ context.Context, id string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return copyAccount(a), nil
}

// Create implements account.Repository.
func (s *Store) Create(_ context.Context, in account.CreateInput) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[in.Email]; taken {
		return nil, account.ErrDuplicateEmail
	}

	now := s.now().UTC()
	a := &account.Account{
		ID:            uuid.NewString(),
		Email:         in.Email,
		Username:      in.Username,
		PasswordHash:  in.PasswordHash,
		EmailVerified: in.EmailVerified,
		FederatedID:   in.FederatedID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.byID[a.ID] = a
	s.byEmail[a.Email] = a.ID
	return copyAccount(a), nil
}

// SetVerificationChallenge implements account.Repository. Any prior live
// challenge is displaced.
func (s *Store) SetVerificationChallenge(_ context.Context, id, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return account.ErrNotFound
	}
	if a.VerificationToken != "" {
		delete(s.byToken, a.VerificationToken)
	}
	a.VerificationToken = token
	a.VerificationExpiresAt = expiresAt
	a.EmailVerified = false
	a.UpdatedAt = s.now().UTC()
	s.byToken[token] = id
	return nil
}

// FindByVerificationToken implements account.Repository. Expiry is the
// caller's check.
func (s *Store) FindByVerificationToken(_ context.Context, token string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byToken[token]
	if !ok {
		return nil, account.ErrNotFound
	}
	return copyAccount(s.byID[id]), nil
}

// ClearVerificationAndMarkVerified implements account.Repository. The check
// and clear run under the store mutex, so concurrent redemptions of the
// same token cannot both succeed.
func (s *Store) ClearVerificationAndMarkVerified(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return account.ErrNotFound
	}
	if a.VerificationToken == "" {
		return account.ErrNoLiveChallenge
	}
	delete(s.byToken, a.VerificationToken)
	a.VerificationToken = ""
	a.VerificationExpiresAt = time.Time{}
	a.EmailVerified = true
	a.UpdatedAt = s.now().UTC()
	return nil
}
