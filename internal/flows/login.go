package flows

import (
	"context"
	"errors"

	"github.com/solvrex/authforge/account"
)

// LoginResult is the flow-local login response shape. Exactly one of the
// token pair or VerificationResent is populated on success.
type LoginResult struct {
	AccountID    string
	AccessToken  string
	RefreshToken string
	// VerificationResent is true when the account was unverified and the
	// flow pivoted to a challenge resend instead of authenticating.
	VerificationResent bool
	DeliveryErr        error
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	Success         int
	Failure         int
	Unverified      int
	DeliveryFailure int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	Success    string
	Failure    string
	Unverified string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	CorruptCredential  error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	FindByEmail    func(ctx context.Context, email string) (*account.Account, error)
	VerifyPassword func(password, hash string) (bool, error)
	IssueTokenPair func(accountID string) (access, refresh string, err error)

	IssueChallenge    func(ctx context.Context, acct *account.Account) error
	IsDeliveryFailure func(error) bool
	IsCorruptHash     func(error) bool

	MetricInc func(int)
	EmitAudit EmitFunc

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin executes the password login flow. An unverified account never
// authenticates: the flow re-issues its verification challenge and reports
// that pivot in the result, before the password is even checked.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.IsDeliveryFailure == nil {
		deps.IsDeliveryFailure = func(error) bool { return false }
	}
	if deps.IsCorruptHash == nil {
		deps.IsCorruptHash = func(error) bool { return false }
	}
	if deps.FindByEmail == nil || deps.VerifyPassword == nil ||
		deps.IssueTokenPair == nil || deps.IssueChallenge == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = account.NormalizeEmail(email)

	acct, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			// Existence is not confirmed to the caller.
			err = deps.Errors.InvalidCredentials
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", email, err, func() map[string]string {
			return map[string]string{"reason": "account_lookup"}
		})
		return nil, err
	}

	if !acct.EmailVerified {
		result := &LoginResult{AccountID: acct.ID, VerificationResent: true}
		if err := deps.IssueChallenge(ctx, acct); err != nil {
			if !deps.IsDeliveryFailure(err) {
				deps.MetricInc(deps.Metrics.Failure)
				deps.EmitAudit(ctx, deps.Events.Failure, false, acct.ID, email, err, nil)
				return nil, err
			}
			result.DeliveryErr = err
			deps.MetricInc(deps.Metrics.DeliveryFailure)
		}
		deps.MetricInc(deps.Metrics.Unverified)
		deps.EmitAudit(ctx, deps.Events.Unverified, true, acct.ID, email, result.DeliveryErr, nil)
		return result, nil
	}

	ok, err := deps.VerifyPassword(password, acct.PasswordHash)
	if err != nil {
		if deps.IsCorruptHash(err) {
			err = deps.Errors.CorruptCredential
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, acct.ID, email, err, func() map[string]string {
			return map[string]string{"reason": "hash_verify"}
		})
		return nil, err
	}
	if !ok {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, acct.ID, email, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "password_mismatch"}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	access, refresh, err := deps.IssueTokenPair(acct.ID)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, acct.ID, email, err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, acct.ID, email, nil, nil)
	return &LoginResult{
		AccountID:    acct.ID,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
