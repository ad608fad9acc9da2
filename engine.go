package authforge

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/solvrex/authforge/account"
	"github.com/solvrex/authforge/internal"
	"github.com/solvrex/authforge/internal/audit"
	"github.com/solvrex/authforge/internal/flows"
	"github.com/solvrex/authforge/password"
	"github.com/solvrex/authforge/token"
	"github.com/solvrex/authforge/verification"
)

// Engine is the credential lifecycle orchestrator. Build one with Builder;
// all methods are safe for concurrent use.
type Engine struct {
	cfg        Config
	repo       account.Repository
	hasher     *password.Hasher
	tokens     *token.Manager
	ledger     *verification.Ledger
	provider   IdentityProvider
	metrics    *Metrics
	dispatcher *audit.Dispatcher

	deps   flows.Deps
	closed atomic.Bool
}

// buildFlowDeps wires every flow dependency set against the engine's
// collaborators. Called once by Build.
func (e *Engine) buildFlowDeps() flows.Deps {
	issueChallenge := func(ctx context.Context, acct *account.Account) error {
		_, err := e.ledger.IssueChallenge(ctx, acct)
		if err != nil && errors.Is(err, verification.ErrDelivery) {
			return errors.Join(ErrDeliveryFailed, err)
		}
		return err
	}
	isDelivery := func(err error) bool { return errors.Is(err, ErrDeliveryFailed) }
	issuePair := func(accountID string) (string, string, error) {
		access, err := e.tokens.IssueAccess(accountID)
		if err != nil {
			return "", "", err
		}
		refresh, err := e.tokens.IssueRefresh(accountID)
		if err != nil {
			return "", "", err
		}
		return access, refresh, nil
	}

	return flows.Deps{
		Register: flows.RegisterDeps{
			HashPassword:      e.hasher.Hash,
			FindByEmail:       e.repo.FindByEmail,
			CreateAccount:     e.repo.Create,
			IssueChallenge:    issueChallenge,
			IsDeliveryFailure: isDelivery,
			MetricInc:         e.metricInc,
			EmitAudit:         e.emitAudit,
			Metrics: flows.RegisterMetrics{
				Created:         int(MetricRegisterCreated),
				Resent:          int(MetricRegisterResent),
				Failure:         int(MetricRegisterFailure),
				DeliveryFailure: int(MetricDeliveryFailure),
			},
			Events: flows.RegisterEvents{
				Created: EventRegisterCreated,
				Resent:  EventRegisterResent,
				Failure: EventRegisterFailure,
			},
			Errors: flows.RegisterErrors{
				EngineNotReady: ErrEngineNotReady,
				AccountExists:  ErrAccountExists,
			},
		},
		Login: flows.LoginDeps{
			FindByEmail:       e.repo.FindByEmail,
			VerifyPassword:    e.hasher.Verify,
			IssueTokenPair:    issuePair,
			IssueChallenge:    issueChallenge,
			IsDeliveryFailure: isDelivery,
			IsCorruptHash:     func(err error) bool { return errors.Is(err, password.ErrCorruptHash) },
			MetricInc:         e.metricInc,
			EmitAudit:         e.emitAudit,
			Metrics: flows.LoginMetrics{
				Success:         int(MetricLoginSuccess),
				Failure:         int(MetricLoginFailure),
				Unverified:      int(MetricLoginUnverified),
				DeliveryFailure: int(MetricDeliveryFailure),
			},
			Events: flows.LoginEvents{
				Success:    EventLoginSuccess,
				Failure:    EventLoginFailure,
				Unverified: EventLoginUnverified,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				CorruptCredential:  ErrCorruptCredential,
			},
		},
		Refresh: flows.RefreshDeps{
			ValidateRefresh: func(tok string) (string, error) {
				subject, err := e.tokens.Validate(tok, token.KindRefresh)
				if err != nil {
					return "", e.mapTokenError(err)
				}
				return subject, nil
			},
			FindByID:    e.repo.FindByID,
			IssueAccess: e.tokens.IssueAccess,
			MetricInc:   e.metricInc,
			EmitAudit:   e.emitAudit,
			Metrics: flows.RefreshMetrics{
				Success: int(MetricRefreshSuccess),
				Failure: int(MetricRefreshFailure),
			},
			Events: flows.RefreshEvents{
				Success: EventRefreshSuccess,
				Failure: EventRefreshFailure,
			},
			Errors: flows.RefreshErrors{
				EngineNotReady:  ErrEngineNotReady,
				AccountNotFound: ErrAccountNotFound,
			},
		},
		Federated: e.federatedDeps(issuePair, issueChallenge, isDelivery),
	}
}

func (e *Engine) metricInc(id int) {
	e.metrics.Inc(MetricID(id))
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, accountID, email string, err error, meta func() map[string]string) {
	if e.dispatcher == nil {
		return
	}
	event := audit.Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if meta != nil {
		event.Metadata = meta()
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		if event.Metadata == nil {
			event.Metadata = make(map[string]string, 1)
		}
		event.Metadata["client_ip"] = ip
	}
	// Emission must not inherit request cancellation; a canceled request
	// still gets audited.
	e.dispatcher.Emit(context.Background(), event)
}

// mapTokenError folds token package failures into the public taxonomy.
func (e *Engine) mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrKindMismatch):
		return ErrTokenKindMismatch
	default:
		return ErrTokenInvalid
	}
}

// Register creates an unverified account and issues its first verification
// challenge. Registering an unverified duplicate re-issues the challenge; a
// verified duplicate fails ErrAccountExists. A mail delivery failure does
// not undo the registration; the result carries it in DeliveryErr.
func (e *Engine) Register(ctx context.Context, email, username, pass string) (*RegisterResult, error) {
	if e.closed.Load() {
		return nil, ErrEngineNotReady
	}
	res, err := flows.RunRegister(ctx, email, username, pass, e.deps.Register)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Account: res.Account, Resent: res.Resent, DeliveryErr: res.DeliveryErr}, nil
}

// Login authenticates a verified account with its password and returns a
// token pair. An unverified account never authenticates; the login pivots
// to a verification challenge resend reported in the result.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if e.closed.Load() {
		return nil, ErrEngineNotReady
	}
	res, err := flows.RunLogin(ctx, email, pass, e.deps.Login)
	if err != nil {
		return nil, err
	}
	out := &LoginResult{
		AccountID:          res.AccountID,
		VerificationResent: res.VerificationResent,
		DeliveryErr:        res.DeliveryErr,
	}
	if res.AccessToken != "" {
		out.Tokens = &TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}
	}
	return out, nil
}

// Refresh validates a refresh token and mints a new access token. The
// refresh token is not rotated. The subject must still resolve to an
// account.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e.closed.Load() {
		return nil, ErrEngineNotReady
	}
	res, err := flows.RunRefresh(ctx, refreshToken, e.deps.Refresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: res.AccessToken, RefreshToken: refreshToken}, nil
}

// ValidateAccess checks an access token and returns its subject account id.
func (e *Engine) ValidateAccess(tok string) (string, error) {
	if e.closed.Load() {
		return "", ErrEngineNotReady
	}
	start := time.Now()
	subject, err := e.tokens.Validate(tok, token.KindAccess)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))
	if err != nil {
		e.metrics.Inc(MetricValidateFailure)
		return "", e.mapTokenError(err)
	}
	e.metrics.Inc(MetricValidateSuccess)
	return subject, nil
}

// GetAccount loads an account by id.
func (e *Engine) GetAccount(ctx context.Context, id string) (*Account, error) {
	if e.closed.Load() {
		return nil, ErrEngineNotReady
	}
	acct, err := e.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acct, nil
}

// Metrics exposes the engine counter set.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsSnapshot copies the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports audit events discarded under a full buffer.
func (e *Engine) AuditDropped() uint64 {
	return e.dispatcher.Dropped()
}

// Close drains the audit dispatcher and marks the engine unusable. Safe to
// call more than once.
func (e *Engine) Close() {
	if e.closed.Swap(true) {
		return
	}
	e.dispatcher.Close()
}

// derivePlaceholderHash builds an unusable password hash for accounts the
// federation bridge creates.
func (e *Engine) derivePlaceholderHash() (string, error) {
	secret, err := internal.NewPlaceholderSecret()
	if err != nil {
		return "", err
	}
	return e.hasher.Hash(secret)
}
