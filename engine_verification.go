package authforge

import (
	"context"
	"errors"

	"github.com/solvrex/authforge/verification"
)

// VerifyEmail redeems a verification challenge token and returns the
// now-verified account. Unknown, expired, displaced, and already-consumed
// tokens all fail ErrVerificationInvalid; an expired token is not consumed.
func (e *Engine) VerifyEmail(ctx context.Context, challengeToken string) (*Account, error) {
	if e.closed.Load() {
		return nil, ErrEngineNotReady
	}

	acct, err := e.ledger.Redeem(ctx, challengeToken)
	if err != nil {
		if errors.Is(err, verification.ErrChallengeNotFound) || errors.Is(err, verification.ErrChallengeExpired) {
			err = ErrVerificationInvalid
		}
		e.metrics.Inc(MetricVerifyFailure)
		e.emitAudit(ctx, EventVerifyFailure, false, "", "", err, nil)
		return nil, err
	}

	e.metrics.Inc(MetricVerifySuccess)
	e.emitAudit(ctx, EventVerifySuccess, true, acct.ID, acct.Email, nil, nil)
	return acct, nil
}
