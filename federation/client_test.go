package federation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testConfig(tokenURL, userInfoURL string) Config {
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example.com/callback",
		AuthURL:      "https://provider.example.com/authorize",
		TokenURL:     tokenURL,
		UserInfoURL:  userInfoURL,
		Scopes:       []string{"openid", "email"},
	}
}

func newProvider(t *testing.T, sub string, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.PostForm.Get("client_secret") != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "provider-access"})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sub":            sub,
			"email":          "person@example.com",
			"name":           "Pat Person",
			"email_verified": verified,
		})
	})
	return httptest.NewServer(mux)
}

func TestExchangeReturnsAssertion(t *testing.T) {
	srv := newProvider(t, "google-sub-1", true)
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL+"/token", srv.URL+"/userinfo"), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	assertion, err := client.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if assertion.Subject != "google-sub-1" {
		t.Errorf("Subject = %q", assertion.Subject)
	}
	if assertion.Email != "person@example.com" {
		t.Errorf("Email = %q", assertion.Email)
	}
	if assertion.Name != "Pat Person" {
		t.Errorf("Name = %q", assertion.Name)
	}
	if !assertion.EmailVerified {
		t.Error("expected EmailVerified")
	}
}

func TestExchangeRejectedCode(t *testing.T) {
	srv := newProvider(t, "sub", true)
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL+"/token", srv.URL+"/userinfo"), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Exchange(context.Background(), "bad-code"); !errors.Is(err, ErrExchange) {
		t.Fatalf("got %v, want ErrExchange", err)
	}
	if _, err := client.Exchange(context.Background(), ""); !errors.Is(err, ErrExchange) {
		t.Fatalf("empty code: got %v, want ErrExchange", err)
	}
}

func TestExchangeMalformedTokenPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL, srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Exchange(context.Background(), "good-code"); !errors.Is(err, ErrExchange) {
		t.Fatalf("got %v, want ErrExchange", err)
	}
}

func TestExchangeMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"scope": "email"})
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL, srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Exchange(context.Background(), "good-code"); !errors.Is(err, ErrExchange) {
		t.Fatalf("got %v, want ErrExchange", err)
	}
}

func TestExchangeSlowProviderTimesOut(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	cfg := testConfig(srv.URL, srv.URL)
	cfg.ExchangeTimeout = 50 * time.Millisecond
	client, err := NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	start := time.Now()
	_, err = client.Exchange(context.Background(), "good-code")
	if !errors.Is(err, ErrExchange) {
		t.Fatalf("got %v, want ErrExchange", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("exchange did not respect timeout, took %v", elapsed)
	}
}

func TestAuthorizationURL(t *testing.T) {
	client, err := NewClient(testConfig("https://p.example.com/token", "https://p.example.com/userinfo"), nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	raw := client.AuthorizationURL("xyz-state")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	q := parsed.Query()
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://app.example.com/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("state") != "xyz-state" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Errorf("scope = %q", q.Get("scope"))
	}
}

func TestConfigValidation(t *testing.T) {
	valid := testConfig("https://t", "https://u")

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing client id", func(c *Config) { c.ClientID = "" }},
		{"missing client secret", func(c *Config) { c.ClientSecret = "" }},
		{"missing redirect uri", func(c *Config) { c.RedirectURI = "" }},
		{"missing token url", func(c *Config) { c.TokenURL = "" }},
		{"missing userinfo url", func(c *Config) { c.UserInfoURL = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			if _, err := NewClient(cfg, nil); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

func TestGoogleConfigPreset(t *testing.T) {
	cfg := GoogleConfig("id", "secret", "https://app/cb")
	if cfg.AuthURL == "" || cfg.TokenURL == "" || cfg.UserInfoURL == "" {
		t.Fatal("expected endpoints to be filled")
	}
	if len(cfg.Scopes) == 0 {
		t.Fatal("expected scopes")
	}
	if _, err := NewClient(cfg, nil); err != nil {
		t.Fatalf("google preset should validate: %v", err)
	}
}
