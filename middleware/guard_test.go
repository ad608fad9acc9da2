package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/solvrex/authforge"
	"github.com/solvrex/authforge/mailer"
	"github.com/solvrex/authforge/store/memory"
)

func newGuardedEngine(t *testing.T) (*authforge.Engine, string) {
	t.Helper()

	var challenge string
	cfg := authforge.Config{
		Token: authforge.TokenConfig{
			AccessSecret:  []byte("middleware-access-secret"),
			RefreshSecret: []byte("middleware-refresh-secret"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    time.Hour,
		},
		Verification: authforge.VerificationConfig{ChallengeTTL: time.Hour},
		Password:     authforge.PasswordConfig{Cost: 4},
		Metrics:      authforge.MetricsConfig{Enabled: true},
	}

	engine, err := authforge.New().
		WithConfig(cfg).
		WithRepository(memory.New()).
		WithMailer(mailer.Func(func(ctx context.Context, address, token string) error {
			challenge = token
			return nil
		})).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	ctx := context.Background()
	if _, err := engine.Register(ctx, "mw@example.com", "mw", "pw123456"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := engine.VerifyEmail(ctx, challenge); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	res, err := engine.Login(ctx, "mw@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return engine, res.Tokens.AccessToken
}

func TestGuardAcceptsBearerToken(t *testing.T) {
	engine, access := newGuardedEngine(t)

	var seenID string
	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = AccountIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if seenID == "" {
		t.Fatal("expected account ID in request context")
	}
}

func TestGuardRejects(t *testing.T) {
	engine, _ := newGuardedEngine(t)
	handler := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestGuardNilEngine(t *testing.T) {
	handler := Guard(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireVerified(t *testing.T) {
	engine, access := newGuardedEngine(t)

	handler := RequireVerified(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
