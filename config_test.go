package authforge

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.Token.AccessSecret = []byte("access-secret")
	cfg.Token.RefreshSecret = []byte("refresh-secret")
	return cfg
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing access secret", func(c *Config) { c.Token.AccessSecret = nil }, "AccessSecret"},
		{"missing refresh secret", func(c *Config) { c.Token.RefreshSecret = nil }, "RefreshSecret"},
		{"shared secret", func(c *Config) {
			c.Token.RefreshSecret = append([]byte(nil), c.Token.AccessSecret...)
		}, "differ"},
		{"zero access ttl", func(c *Config) { c.Token.AccessTTL = 0 }, "AccessTTL"},
		{"negative refresh ttl", func(c *Config) { c.Token.RefreshTTL = -time.Minute }, "RefreshTTL"},
		{"negative leeway", func(c *Config) { c.Token.Leeway = -time.Second }, "Leeway"},
		{"zero challenge ttl", func(c *Config) { c.Verification.ChallengeTTL = 0 }, "ChallengeTTL"},
		{"cost too low", func(c *Config) { c.Password.Cost = 2 }, "Cost"},
		{"cost too high", func(c *Config) { c.Password.Cost = 99 }, "Cost"},
		{"partial provider", func(c *Config) { c.Provider.ClientID = "id" }, "credentials"},
		{"provider without redirect", func(c *Config) {
			c.Provider.ClientID = "id"
			c.Provider.ClientSecret = "secret"
		}, "RedirectURI"},
		{"provider without endpoints", func(c *Config) {
			c.Provider.ClientID = "id"
			c.Provider.ClientSecret = "secret"
			c.Provider.RedirectURI = "https://app.example.com/callback"
		}, "endpoint"},
		{"audit without buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}, "BufferSize"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("got %v, want error mentioning %q", err, tc.wantErr)
			}
		})
	}
}

func TestConfigValidateFullProvider(t *testing.T) {
	cfg := validTestConfig()
	cfg.Provider = ProviderConfig{
		ClientID:        "id",
		ClientSecret:    "secret",
		RedirectURI:     "https://app.example.com/callback",
		AuthURL:         "https://provider.example.com/auth",
		TokenURL:        "https://provider.example.com/token",
		UserInfoURL:     "https://provider.example.com/userinfo",
		ExchangeTimeout: 5 * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Provider.Empty() {
		t.Fatal("configured provider must not report Empty")
	}
}

func TestCloneConfigIsolatesSecrets(t *testing.T) {
	cfg := validTestConfig()
	cfg.Provider.Scopes = []string{"openid", "email"}

	clone := cloneConfig(cfg)
	clone.Token.AccessSecret[0] ^= 0xff
	clone.Provider.Scopes[0] = "mutated"

	if cfg.Token.AccessSecret[0] == clone.Token.AccessSecret[0] {
		t.Fatal("clone must not share secret backing arrays")
	}
	if cfg.Provider.Scopes[0] != "openid" {
		t.Fatal("clone must not share the scopes slice")
	}
}
