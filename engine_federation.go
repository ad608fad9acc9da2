package authforge

import (
	"context"
	"errors"

	"github.com/solvrex/authforge/account"
	"github.com/solvrex/authforge/federation"
	"github.com/solvrex/authforge/internal"
	"github.com/solvrex/authforge/internal/flows"
)

func (e *Engine) federatedDeps(
	issuePair func(string) (string, string, error),
	issueChallenge func(context.Context, *account.Account) error,
	isDelivery func(error) bool,
) flows.FederatedDeps {
	deps := flows.FederatedDeps{
		FindByEmail:       e.repo.FindByEmail,
		CreateAccount:     e.repo.Create,
		DeriveUsername:    internal.UsernameFromAssertion,
		HashPlaceholder:   e.derivePlaceholderHash,
		IssueTokenPair:    issuePair,
		IssueChallenge:    issueChallenge,
		IsDeliveryFailure: isDelivery,
		MetricInc:         e.metricInc,
		EmitAudit:         e.emitAudit,
		Metrics: flows.FederatedMetrics{
			Success:         int(MetricFederatedSuccess),
			Failure:         int(MetricFederatedFailure),
			Redirect:        int(MetricFederatedRedirect),
			AccountCreated:  int(MetricFederatedAccountCreated),
			Unverified:      int(MetricFederatedUnverified),
			DeliveryFailure: int(MetricDeliveryFailure),
		},
		Events: flows.FederatedEvents{
			Success:    EventFederatedSuccess,
			Failure:    EventFederatedFailure,
			Redirect:   EventFederatedRedirect,
			Unverified: EventFederatedUnverified,
		},
		Errors: flows.FederatedErrors{
			EngineNotReady:   ErrEngineNotReady,
			FederationFailed: ErrFederationFailed,
		},
	}
	if e.provider != nil {
		deps.AuthorizationURL = e.provider.AuthorizationURL
		deps.Exchange = func(ctx context.Context, code string) (flows.FederatedAssertion, error) {
			assertion, err := e.provider.Exchange(ctx, code)
			if err != nil {
				if errors.Is(err, federation.ErrExchange) {
					err = errors.Join(ErrFederationFailed, err)
				}
				return flows.FederatedAssertion{}, err
			}
			return flows.FederatedAssertion{
				Subject:       assertion.Subject,
				Email:         assertion.Email,
				Name:          assertion.Name,
				EmailVerified: assertion.EmailVerified,
			}, nil
		}
	}
	return deps
}

// FederatedLogin completes (or starts) a federated login. An empty code
// means the provider callback carried no grant; the result then holds the
// authorization URL to redirect to. With a code, the provider assertion is
// reconciled to a local account, which is then treated exactly like a
// direct login: verified accounts get a token pair, unverified ones get a
// challenge resend.
func (e *Engine) FederatedLogin(ctx context.Context, code, state string) (*FederatedLoginResult, error) {
	if e.closed.Load() {
		return nil, ErrEngineNotReady
	}
	res, err := flows.RunFederatedLogin(ctx, code, state, e.deps.Federated)
	if err != nil {
		return nil, err
	}
	out := &FederatedLoginResult{
		AuthorizationURL:   res.AuthorizationURL,
		AccountID:          res.AccountID,
		AccountCreated:     res.Created,
		VerificationResent: res.VerificationResent,
		DeliveryErr:        res.DeliveryErr,
	}
	if res.AccessToken != "" {
		out.Tokens = &TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}
	}
	return out, nil
}
