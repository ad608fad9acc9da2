package authforge

import "errors"

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords; the
	// two are indistinguishable to callers so account existence leaks
	// nothing.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is returned by Register when the email belongs to a
	// verified account.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned when a token subject or account id no
	// longer resolves to an account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrTokenInvalid is returned for malformed or forged tokens.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenKindMismatch is returned when an access token is presented
	// where a refresh token is expected, or vice versa.
	ErrTokenKindMismatch = errors.New("token kind mismatch")
	// ErrVerificationInvalid covers unknown, expired, displaced, and
	// already-consumed verification tokens.
	ErrVerificationInvalid = errors.New("verification token invalid")
	// ErrFederationFailed is returned when the provider code exchange
	// fails or times out.
	ErrFederationFailed = errors.New("federated login failed")
	// ErrDeliveryFailed wraps mail delivery failures. It never rolls back
	// the state change that preceded it; results carry it in DeliveryErr.
	ErrDeliveryFailed = errors.New("verification email delivery failed")
	// ErrCorruptCredential signals a stored password hash that cannot be
	// parsed. Treat it as fatal for that record.
	ErrCorruptCredential = errors.New("stored credential corrupt")
	// ErrEngineNotReady is returned when an intent runs without its
	// required collaborators wired.
	ErrEngineNotReady = errors.New("engine not ready")
)
