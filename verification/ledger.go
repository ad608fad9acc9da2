package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solvrex/authforge/account"
	"github.com/solvrex/authforge/internal"
)

var (
	// ErrChallengeNotFound is returned by Redeem when no account holds the
	// token. Double redemptions and tokens displaced by a re-issue land
	// here too.
	ErrChallengeNotFound = errors.New("verification challenge not found")
	// ErrChallengeExpired is returned by Redeem when the token exists but
	// its lifetime has passed. The stored challenge is left in place.
	ErrChallengeExpired = errors.New("verification challenge expired")
	// ErrDelivery wraps mailer failures. The challenge remains durably
	// issued and redeemable; only the notification was lost.
	ErrDelivery = errors.New("verification email delivery failed")
)

// Mailer delivers a verification token to an address.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, address, token string) error
}

// Ledger issues and redeems verification challenges against a repository.
type Ledger struct {
	repo   account.Repository
	mailer Mailer
	ttl    time.Duration

	now      func() time.Time
	newToken func() (string, error)
}

// Option tweaks ledger construction.
type Option func(*Ledger)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithTokenSource overrides challenge token generation, for tests.
func WithTokenSource(newToken func() (string, error)) Option {
	return func(l *Ledger) { l.newToken = newToken }
}

// NewLedger builds a Ledger. The ttl bounds every issued challenge; repo and
// mailer are required.
func NewLedger(repo account.Repository, mailer Mailer, ttl time.Duration, opts ...Option) (*Ledger, error) {
	if repo == nil {
		return nil, errors.New("verification: repository is required")
	}
	if mailer == nil {
		return nil, errors.New("verification: mailer is required")
	}
	if ttl <= 0 {
		return nil, errors.New("verification: challenge ttl must be positive")
	}

	l := &Ledger{
		repo:     repo,
		mailer:   mailer,
		ttl:      ttl,
		now:      time.Now,
		newToken: internal.NewChallengeToken,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// IssueChallenge generates a fresh opaque token, persists it on the account
// with its expiry (displacing any prior live challenge), then attempts
// delivery. A delivery failure is reported wrapped in ErrDelivery, but the
// challenge stays issued and redeemable.
func (l *Ledger) IssueChallenge(ctx context.Context, acct *account.Account) (string, error) {
	if acct == nil {
		return "", errors.New("verification: nil account")
	}

	token, err := l.newToken()
	if err != nil {
		return "", fmt.Errorf("verification: token generation: %w", err)
	}

	expiresAt := l.now().Add(l.ttl)
	if err := l.repo.SetVerificationChallenge(ctx, acct.ID, token, expiresAt); err != nil {
		return "", fmt.Errorf("verification: persist challenge: %w", err)
	}
	acct.VerificationToken = token
	acct.VerificationExpiresAt = expiresAt
	acct.EmailVerified = false

	if err := l.mailer.SendVerificationEmail(ctx, acct.Email, token); err != nil {
		return token, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return token, nil
}

// Redeem consumes a challenge token and flips its account to verified.
// Unknown and already-consumed tokens fail ErrChallengeNotFound; expired
// tokens fail ErrChallengeExpired without consuming the challenge. The
// repository clear is atomic, so two concurrent redemptions of the same
// token cannot both succeed.
func (l *Ledger) Redeem(ctx context.Context, token string) (*account.Account, error) {
	if token == "" {
		return nil, ErrChallengeNotFound
	}

	acct, err := l.repo.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("verification: token lookup: %w", err)
	}

	if !acct.VerificationExpiresAt.IsZero() && l.now().After(acct.VerificationExpiresAt) {
		return nil, ErrChallengeExpired
	}

	if err := l.repo.ClearVerificationAndMarkVerified(ctx, acct.ID); err != nil {
		if errors.Is(err, account.ErrNoLiveChallenge) || errors.Is(err, account.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("verification: mark verified: %w", err)
	}

	acct.EmailVerified = true
	acct.VerificationToken = ""
	acct.VerificationExpiresAt = time.Time{}
	return acct, nil
}
