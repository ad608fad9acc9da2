package flows

import (
	"context"
	"errors"

	"github.com/solvrex/authforge/account"
)

// FederatedAssertion is the flow-local shape of a provider identity claim.
type FederatedAssertion struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// FederatedResult is the flow-local federated login response shape. When the
// callback carried no authorization code only AuthorizationURL is set.
type FederatedResult struct {
	AuthorizationURL string

	AccountID          string
	AccessToken        string
	RefreshToken       string
	Created            bool
	VerificationResent bool
	DeliveryErr        error
}

// FederatedMetrics carries metric IDs needed by the federated login flow.
type FederatedMetrics struct {
	Success         int
	Failure         int
	Redirect        int
	AccountCreated  int
	Unverified      int
	DeliveryFailure int
}

// FederatedEvents carries audit event names used by the federated login flow.
type FederatedEvents struct {
	Success    string
	Failure    string
	Redirect   string
	Unverified string
}

// FederatedErrors carries host-level sentinel errors used by the federated
// login flow.
type FederatedErrors struct {
	EngineNotReady   error
	FederationFailed error
}

// FederatedDeps captures federated login dependencies.
type FederatedDeps struct {
	AuthorizationURL func(state string) string
	Exchange         func(ctx context.Context, code string) (FederatedAssertion, error)

	FindByEmail   func(ctx context.Context, email string) (*account.Account, error)
	CreateAccount func(ctx context.Context, input account.CreateInput) (*account.Account, error)

	// DeriveUsername picks a username from the assertion name, falling back
	// to the email local part.
	DeriveUsername func(name, email string) string
	// HashPlaceholder produces an unusable password hash for accounts the
	// bridge creates; federated accounts have no password of their own.
	HashPlaceholder func() (string, error)

	IssueTokenPair func(accountID string) (access, refresh string, err error)

	IssueChallenge    func(ctx context.Context, acct *account.Account) error
	IsDeliveryFailure func(error) bool

	MetricInc func(int)
	EmitAudit EmitFunc

	Metrics FederatedMetrics
	Events  FederatedEvents
	Errors  FederatedErrors
}

// RunFederatedLogin executes the federated login flow. A callback without a
// code yields the authorization URL for the caller to redirect to. With a
// code, the flow exchanges it for an identity assertion, reconciles it to a
// local account (matching by email, creating one when absent), then applies
// the ordinary login contract to the resolved account.
func RunFederatedLogin(ctx context.Context, code, state string, deps FederatedDeps) (*FederatedResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.IsDeliveryFailure == nil {
		deps.IsDeliveryFailure = func(error) bool { return false }
	}
	if deps.AuthorizationURL == nil || deps.Exchange == nil ||
		deps.FindByEmail == nil || deps.CreateAccount == nil ||
		deps.DeriveUsername == nil || deps.HashPlaceholder == nil ||
		deps.IssueTokenPair == nil || deps.IssueChallenge == nil {
		return nil, deps.Errors.EngineNotReady
	}

	if code == "" {
		deps.MetricInc(deps.Metrics.Redirect)
		deps.EmitAudit(ctx, deps.Events.Redirect, true, "", "", nil, nil)
		return &FederatedResult{AuthorizationURL: deps.AuthorizationURL(state)}, nil
	}

	assertion, err := deps.Exchange(ctx, code)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", "", err, func() map[string]string {
			return map[string]string{"reason": "code_exchange"}
		})
		return nil, err
	}

	email := account.NormalizeEmail(assertion.Email)

	acct, created, err := resolveFederated(ctx, email, assertion, deps)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", email, err, func() map[string]string {
			return map[string]string{"reason": "reconcile", "subject": assertion.Subject}
		})
		return nil, err
	}
	if created {
		deps.MetricInc(deps.Metrics.AccountCreated)
	}

	if !acct.EmailVerified {
		result := &FederatedResult{
			AccountID:          acct.ID,
			Created:            created,
			VerificationResent: true,
		}
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

	access, refresh, err := deps.IssueTokenPair(acct.ID)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, acct.ID, email, err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, acct.ID, email, nil, func() map[string]string {
		return map[string]string{"subject": assertion.Subject}
	})
	return &FederatedResult{
		AccountID:    acct.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		Created:      created,
	}, nil
}

// resolveFederated matches the assertion to an existing account by email, or
// creates one carrying the federated subject, a derived username, an unusable
// placeholder password, and the provider's verified flag. Existing accounts
// are returned unchanged.
func resolveFederated(ctx context.Context, email string, assertion FederatedAssertion, deps FederatedDeps) (*account.Account, bool, error) {
	acct, err := deps.FindByEmail(ctx, email)
	if err == nil {
		return acct, false, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return nil, false, err
	}

	hash, err := deps.HashPlaceholder()
	if err != nil {
		return nil, false, err
	}

	acct, err = deps.CreateAccount(ctx, account.CreateInput{
		Email:         email,
		Username:      deps.DeriveUsername(assertion.Name, email),
		PasswordHash:  hash,
		EmailVerified: assertion.EmailVerified,
		FederatedID:   assertion.Subject,
	})
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			// Lost a creation race; the winner's record is authoritative.
			if existing, ferr := deps.FindByEmail(ctx, email); ferr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return acct, true, nil
}
