package authforge

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	AccessSecret  string        `env:"AUTHFORGE_ACCESS_SECRET"`
	RefreshSecret string        `env:"AUTHFORGE_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"AUTHFORGE_ACCESS_TTL"`
	RefreshTTL    time.Duration `env:"AUTHFORGE_REFRESH_TTL"`
	Issuer        string        `env:"AUTHFORGE_ISSUER"`

	ChallengeTTL time.Duration `env:"AUTHFORGE_CHALLENGE_TTL"`
	HashCost     int           `env:"AUTHFORGE_HASH_COST"`

	ProviderClientID        string        `env:"AUTHFORGE_PROVIDER_CLIENT_ID"`
	ProviderClientSecret    string        `env:"AUTHFORGE_PROVIDER_CLIENT_SECRET"`
	ProviderRedirectURI     string        `env:"AUTHFORGE_PROVIDER_REDIRECT_URI"`
	ProviderAuthURL         string        `env:"AUTHFORGE_PROVIDER_AUTH_URL"`
	ProviderTokenURL        string        `env:"AUTHFORGE_PROVIDER_TOKEN_URL"`
	ProviderUserInfoURL     string        `env:"AUTHFORGE_PROVIDER_USERINFO_URL"`
	ProviderScopes          []string      `env:"AUTHFORGE_PROVIDER_SCOPES" envSeparator:","`
	ProviderExchangeTimeout time.Duration `env:"AUTHFORGE_PROVIDER_EXCHANGE_TIMEOUT"`

	AuditEnabled    bool `env:"AUTHFORGE_AUDIT_ENABLED" envDefault:"true"`
	AuditBufferSize int  `env:"AUTHFORGE_AUDIT_BUFFER"`
	MetricsEnabled  bool `env:"AUTHFORGE_METRICS_ENABLED" envDefault:"true"`
}

// ConfigFromEnv loads recognized options from AUTHFORGE_-prefixed environment
// variables on top of the defaults. Unset options keep their default.
func ConfigFromEnv() (Config, error) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := defaultConfig()
	if e.AccessSecret != "" {
		cfg.Token.AccessSecret = []byte(e.AccessSecret)
	}
	if e.RefreshSecret != "" {
		cfg.Token.RefreshSecret = []byte(e.RefreshSecret)
	}
	if e.AccessTTL > 0 {
		cfg.Token.AccessTTL = e.AccessTTL
	}
	if e.RefreshTTL > 0 {
		cfg.Token.RefreshTTL = e.RefreshTTL
	}
	cfg.Token.Issuer = e.Issuer

	if e.ChallengeTTL > 0 {
		cfg.Verification.ChallengeTTL = e.ChallengeTTL
	}
	if e.HashCost > 0 {
		cfg.Password.Cost = e.HashCost
	}

	cfg.Provider.ClientID = e.ProviderClientID
	cfg.Provider.ClientSecret = e.ProviderClientSecret
	cfg.Provider.RedirectURI = e.ProviderRedirectURI
	cfg.Provider.AuthURL = e.ProviderAuthURL
	cfg.Provider.TokenURL = e.ProviderTokenURL
	cfg.Provider.UserInfoURL = e.ProviderUserInfoURL
	if len(e.ProviderScopes) > 0 {
		cfg.Provider.Scopes = e.ProviderScopes
	}
	if e.ProviderExchangeTimeout > 0 {
		cfg.Provider.ExchangeTimeout = e.ProviderExchangeTimeout
	}

	cfg.Audit.Enabled = e.AuditEnabled
	if e.AuditBufferSize > 0 {
		cfg.Audit.BufferSize = e.AuditBufferSize
	}
	cfg.Metrics.Enabled = e.MetricsEnabled

	return cfg, nil
}
