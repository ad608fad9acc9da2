package authforge

import (
	"context"

	"github.com/solvrex/authforge/account"
	"github.com/solvrex/authforge/federation"
	"github.com/solvrex/authforge/verification"
)

// Account is the identity record managed by the engine.
type Account = account.Account

// CreateInput carries the fields for Repository.Create.
type CreateInput = account.CreateInput

// Repository is the persistence collaborator the engine writes accounts
// through. See the account package for the atomicity contract.
type Repository = account.Repository

// Mailer delivers verification tokens to an address.
type Mailer = verification.Mailer

// Assertion is the identity claim a federated provider makes about the
// authenticated subject.
type Assertion = federation.Assertion

// IdentityProvider is the federated identity collaborator.
// *federation.Client satisfies it.
type IdentityProvider interface {
	Exchange(ctx context.Context, code string) (federation.Assertion, error)
	AuthorizationURL(state string) string
}

// TokenPair holds a freshly minted access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterResult reports the outcome of Register.
type RegisterResult struct {
	Account *Account
	// Resent is true when the email already belonged to an unverified
	// account and its challenge was re-issued instead.
	Resent bool
	// DeliveryErr wraps ErrDeliveryFailed when the challenge was durably
	// issued but the mail did not go out. The registration itself stands.
	DeliveryErr error
}

// LoginResult reports the outcome of Login. Exactly one of Tokens or
// VerificationResent is populated.
type LoginResult struct {
	AccountID string
	Tokens    *TokenPair
	// VerificationResent is true when the account was unverified and the
	// login pivoted to a challenge resend instead of authenticating.
	VerificationResent bool
	DeliveryErr        error
}

// FederatedLoginResult reports the outcome of FederatedLogin. When the
// callback carried no code only AuthorizationURL is set.
type FederatedLoginResult struct {
	AuthorizationURL string

	AccountID      string
	Tokens         *TokenPair
	AccountCreated bool
	// VerificationResent mirrors LoginResult: the resolved account was
	// unverified, so a challenge went out instead of tokens.
	VerificationResent bool
	DeliveryErr        error
}
