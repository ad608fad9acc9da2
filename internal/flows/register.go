package flows

import (
	"context"
	"errors"

	"github.com/solvrex/authforge/account"
)

// RegisterResult is the flow-local registration response shape.
type RegisterResult struct {
	Account *account.Account
	// Resent is true when the email already belonged to an unverified
	// account and the flow re-issued its challenge instead of creating one.
	Resent bool
	// DeliveryErr records a mail delivery failure that did not roll back
	// the durable state change.
	DeliveryErr error
}

// RegisterMetrics carries metric IDs needed by the register flow.
type RegisterMetrics struct {
	Created         int
	Resent          int
	Failure         int
	DeliveryFailure int
}

// RegisterEvents carries audit event names used by the register flow.
type RegisterEvents struct {
	Created string
	Resent  string
	Failure string
}

// RegisterErrors carries host-level sentinel errors used by the register flow.
type RegisterErrors struct {
	EngineNotReady error
	AccountExists  error
}

// RegisterDeps captures register dependencies.
type RegisterDeps struct {
	HashPassword  func(password string) (string, error)
	FindByEmail   func(ctx context.Context, email string) (*account.Account, error)
	CreateAccount func(ctx context.Context, input account.CreateInput) (*account.Account, error)

	// IssueChallenge persists a fresh verification challenge and attempts
	// delivery. A returned error for which IsDeliveryFailure is true means
	// the challenge is durably stored but the mail did not go out.
	IssueChallenge    func(ctx context.Context, acct *account.Account) error
	IsDeliveryFailure func(error) bool

	MetricInc func(int)
	EmitAudit EmitFunc

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister executes the registration flow: create-and-challenge for a new
// email, idempotent challenge resend for an unverified duplicate, and a typed
// failure for a verified duplicate.
func RunRegister(ctx context.Context, email, username, password string, deps RegisterDeps) (*RegisterResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.IsDeliveryFailure == nil {
		deps.IsDeliveryFailure = func(error) bool { return false }
	}
	if deps.HashPassword == nil || deps.FindByEmail == nil ||
		deps.CreateAccount == nil || deps.IssueChallenge == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = account.NormalizeEmail(email)

	existing, err := deps.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.EmailVerified:
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, existing.ID, email, deps.Errors.AccountExists, func() map[string]string {
			return map[string]string{"reason": "email_taken"}
		})
		return nil, deps.Errors.AccountExists
	case err == nil:
		// Unverified duplicate: re-issue the challenge instead of failing.
		result := &RegisterResult{Account: existing, Resent: true}
		if err := deps.IssueChallenge(ctx, existing); err != nil {
			if !deps.IsDeliveryFailure(err) {
				deps.MetricInc(deps.Metrics.Failure)
				deps.EmitAudit(ctx, deps.Events.Failure, false, existing.ID, email, err, nil)
				return nil, err
			}
			result.DeliveryErr = err
			deps.MetricInc(deps.Metrics.DeliveryFailure)
		}
		deps.MetricInc(deps.Metrics.Resent)
		deps.EmitAudit(ctx, deps.Events.Resent, true, existing.ID, email, result.DeliveryErr, nil)
		return result, nil
	case !errors.Is(err, account.ErrNotFound):
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", email, err, nil)
		return nil, err
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", email, err, nil)
		return nil, err
	}

	acct, err := deps.CreateAccount(ctx, account.CreateInput{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			// Lost a creation race; present it as the ordinary duplicate.
			err = deps.Errors.AccountExists
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", email, err, nil)
		return nil, err
	}

	result := &RegisterResult{Account: acct}
	if err := deps.IssueChallenge(ctx, acct); err != nil {
		if !deps.IsDeliveryFailure(err) {
			deps.MetricInc(deps.Metrics.Failure)
			deps.EmitAudit(ctx, deps.Events.Failure, false, acct.ID, email, err, nil)
			return nil, err
		}
		result.DeliveryErr = err
		deps.MetricInc(deps.Metrics.DeliveryFailure)
	}

	deps.MetricInc(deps.Metrics.Created)
	deps.EmitAudit(ctx, deps.Events.Created, true, acct.ID, email, result.DeliveryErr, nil)
	return result, nil
}
