package authforge

import (
	"context"
	"errors"
	"testing"
)

// Cross-cutting guarantees that individual flow tests assume. Each test here
// states one invariant end to end.

func TestSecurityInvariantUnverifiedAccountNeverGetsTokens(t *testing.T) {
	f := newTestEngine(t)
	mustRegister(t, f, "held@example.com", "pw123456")

	res, err := f.engine.Login(context.Background(), "held@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Tokens != nil {
		t.Fatal("unverified login must never carry tokens")
	}

	f.provider.assertion = Assertion{
		Subject: "sub-held",
		Email:   "held@example.com",
	}
	fed, err := f.engine.FederatedLogin(context.Background(), "good-code", "")
	if err != nil {
		t.Fatalf("FederatedLogin: %v", err)
	}
	if fed.Tokens != nil {
		t.Fatal("federated login against an unverified account must never carry tokens")
	}
}

func TestSecurityInvariantTokenKindsNeverInterchange(t *testing.T) {
	f := newTestEngine(t)
	mustRegister(t, f, "kinds@example.com", "pw123456")
	mustVerify(t, f, "kinds@example.com")

	res, err := f.engine.Login(context.Background(), "kinds@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := f.engine.ValidateAccess(res.Tokens.RefreshToken); !errors.Is(err, ErrTokenKindMismatch) {
		t.Fatalf("refresh token as access: got %v", err)
	}
	if _, err := f.engine.Refresh(context.Background(), res.Tokens.AccessToken); !errors.Is(err, ErrTokenKindMismatch) {
		t.Fatalf("access token as refresh: got %v", err)
	}
}

func TestSecurityInvariantChallengeTokenSingleUse(t *testing.T) {
	f := newTestEngine(t)
	mustRegister(t, f, "once@example.com", "pw123456")
	token := f.mailer.lastToken("once@example.com")

	if _, err := f.engine.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := f.engine.VerifyEmail(context.Background(), token); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("second redeem: got %v, want ErrVerificationInvalid", err)
	}
}

func TestSecurityInvariantCredentialProbesAreUniform(t *testing.T) {
	f := newTestEngine(t)
	mustRegister(t, f, "probe@example.com", "pw123456")
	mustVerify(t, f, "probe@example.com")

	// Unknown account and wrong password are indistinguishable to a caller.
	_, unknownErr := f.engine.Login(context.Background(), "nobody@example.com", "pw123456")
	_, wrongErr := f.engine.Login(context.Background(), "probe@example.com", "wrong-password")

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("unknown=%v wrong=%v, want ErrInvalidCredentials for both", unknownErr, wrongErr)
	}
}
