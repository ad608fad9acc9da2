package authforge

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	f := newTestEngine(t)

	res := mustRegister(t, f, "new@example.com", "pw123456")
	if res.Resent {
		t.Fatal("fresh registration must not report a resend")
	}
	if res.DeliveryErr != nil {
		t.Fatalf("unexpected delivery error: %v", res.DeliveryErr)
	}
	if res.Account.EmailVerified {
		t.Fatal("new account must start unverified")
	}
	if res.Account.PasswordHash == "pw123456" {
		t.Fatal("password stored in plaintext")
	}
	if f.mailer.lastToken("new@example.com") == "" {
		t.Fatal("expected a verification token delivery")
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	f := newTestEngine(t)

	res := mustRegister(t, f, "  MiXeD@Example.COM ", "pw123456")
	if res.Account.Email != "mixed@example.com" {
		t.Fatalf("email = %q", res.Account.Email)
	}

	// Duplicate in another casing resolves to the same account.
	again, err := f.engine.Register(context.Background(), "mixed@EXAMPLE.com", "tester", "pw123456")
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if !again.Resent {
		t.Fatal("expected resend for unverified duplicate")
	}
	if again.Account.ID != res.Account.ID {
		t.Fatal("duplicate resolved to a different account")
	}
}

func TestRegisterUnverifiedDuplicateResends(t *testing.T) {
	f := newTestEngine(t)

	mustRegister(t, f, "dup@example.com", "pw123456")
	first := f.mailer.lastToken("dup@example.com")

	res := mustRegister(t, f, "dup@example.com", "pw123456")
	if !res.Resent {
		t.Fatal("expected Resent")
	}
	second := f.mailer.lastToken("dup@example.com")
	if second == "" || second == first {
		t.Fatal("expected a fresh challenge token")
	}

	// The displaced token no longer redeems.
	if _, err := f.engine.VerifyEmail(context.Background(), first); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("displaced token: got %v", err)
	}
}

func TestRegisterVerifiedDuplicateFails(t *testing.T) {
	f := newTestEngine(t)
	mustRegister(t, f, "done@example.com", "pw123456")
	mustVerify(t, f, "done@example.com")

	if _, err := f.engine.Register(context.Background(), "done@example.com", "tester", "pw123456"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("got %v, want ErrAccountExists", err)
	}
}

func TestRegisterDeliveryFailureIsDegradedSuccess(t *testing.T) {
	f := newTestEngine(t)
	f.mailer.setFail(true)

	res, err := f.engine.Register(context.Background(), "late@example.com", "tester", "pw123456")
	if err != nil {
		t.Fatalf("Register must not fail on delivery: %v", err)
	}
	if res.DeliveryErr == nil || !errors.Is(res.DeliveryErr, ErrDeliveryFailed) {
		t.Fatalf("DeliveryErr = %v, want ErrDeliveryFailed", res.DeliveryErr)
	}

	// The challenge was durably issued; once mail recovers a login resend
	// surfaces a redeemable token.
	f.mailer.setFail(false)
	login, err := f.engine.Login(context.Background(), "late@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !login.VerificationResent {
		t.Fatal("expected verification resend")
	}
	if _, err := f.engine.VerifyEmail(context.Background(), f.mailer.lastToken("late@example.com")); err != nil {
		t.Fatalf("VerifyEmail after recovery: %v", err)
	}
}

func TestRegisterMetricsAndAudit(t *testing.T) {
	f := newTestEngine(t)
	mustRegister(t, f, "m@example.com", "pw123456")

	if got := f.engine.Metrics().Value(MetricRegisterCreated); got != 1 {
		t.Fatalf("MetricRegisterCreated = %d", got)
	}

	f.engine.Close() // drain dispatcher
	event := <-f.sink.Events()
	if event.EventType != EventRegisterCreated || !event.Success {
		t.Fatalf("unexpected audit event: %+v", event)
	}
	if event.Email != "m@example.com" {
		t.Fatalf("audit email = %q", event.Email)
	}
}
