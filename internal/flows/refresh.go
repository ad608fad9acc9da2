package flows

import (
	"context"
	"errors"

	"github.com/solvrex/authforge/account"
)

// RefreshResult is the flow-local refresh response shape. The refresh token
// is not rotated; only a new access token is minted.
type RefreshResult struct {
	AccountID   string
	AccessToken string
}

// RefreshMetrics carries metric IDs needed by the refresh flow.
type RefreshMetrics struct {
	Success int
	Failure int
}

// RefreshEvents carries audit event names used by the refresh flow.
type RefreshEvents struct {
	Success string
	Failure string
}

// RefreshErrors carries host-level sentinel errors used by the refresh flow.
type RefreshErrors struct {
	EngineNotReady  error
	AccountNotFound error
}

// RefreshDeps captures refresh dependencies.
type RefreshDeps struct {
	// ValidateRefresh checks signature, expiry, and kind, returning the
	// subject. Errors are expected to already be host-level sentinels.
	ValidateRefresh func(token string) (subject string, err error)
	FindByID        func(ctx context.Context, id string) (*account.Account, error)
	IssueAccess     func(accountID string) (string, error)

	MetricInc func(int)
	EmitAudit EmitFunc

	Metrics RefreshMetrics
	Events  RefreshEvents
	Errors  RefreshErrors
}

// RunRefresh validates a refresh token and mints a fresh access token for
// the subject, which must still resolve to a live account.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) (*RefreshResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.ValidateRefresh == nil || deps.FindByID == nil || deps.IssueAccess == nil {
		return nil, deps.Errors.EngineNotReady
	}

	subject, err := deps.ValidateRefresh(refreshToken)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", "", err, func() map[string]string {
			return map[string]string{"reason": "token_validate"}
		})
		return nil, err
	}

	acct, err := deps.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			err = deps.Errors.AccountNotFound
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, subject, "", err, func() map[string]string {
			return map[string]string{"reason": "subject_lookup"}
		})
		return nil, err
	}

	access, err := deps.IssueAccess(acct.ID)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, acct.ID, "", err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, acct.ID, "", nil, nil)
	return &RefreshResult{AccountID: acct.ID, AccessToken: access}, nil
}
