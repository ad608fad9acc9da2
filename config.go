package authforge

import (
	"bytes"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config is the engine's static configuration. Configure once before Build;
// the engine never reads mutated configs afterwards.
type Config struct {
	Token        TokenConfig
	Verification VerificationConfig
	Password     PasswordConfig
	Provider     ProviderConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// TokenConfig configures the token issuer. Access and refresh tokens sign
// with independent secrets so one kind can never validate as the other.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// VerificationConfig configures the email challenge lifecycle.
type VerificationConfig struct {
	ChallengeTTL time.Duration
}

// PasswordConfig configures password hashing.
type PasswordConfig struct {
	Cost int
}

// ProviderConfig configures the federated identity provider. Leave it empty
// to build an engine without federation; FederatedLogin then fails
// ErrEngineNotReady.
type ProviderConfig struct {
	ClientID        string
	ClientSecret    string
	RedirectURI     string
	AuthURL         string
	TokenURL        string
	UserInfoURL     string
	Scopes          []string
	ExchangeTimeout time.Duration
}

// Empty reports whether no provider is configured at all.
func (p ProviderConfig) Empty() bool {
	return p.ClientID == "" && p.ClientSecret == "" && p.RedirectURI == "" &&
		p.AuthURL == "" && p.TokenURL == "" && p.UserInfoURL == ""
}

// AuditConfig configures the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig configures the engine counter set.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Verification: VerificationConfig{
			ChallengeTTL: 24 * time.Hour,
		},
		Password: PasswordConfig{
			Cost: 10,
		},
		Provider: ProviderConfig{
			ExchangeTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = append([]byte(nil), cfg.Token.AccessSecret...)
	out.Token.RefreshSecret = append([]byte(nil), cfg.Token.RefreshSecret...)
	out.Provider.Scopes = append([]string(nil), cfg.Provider.Scopes...)
	return out
}

// Validate checks the config for internal consistency. Build calls it; it is
// exported so callers can fail fast on assembled configs.
func (c Config) Validate() error {
	switch {
	case len(c.Token.AccessSecret) == 0:
		return errors.New("Token.AccessSecret is required")
	case len(c.Token.RefreshSecret) == 0:
		return errors.New("Token.RefreshSecret is required")
	case bytes.Equal(c.Token.AccessSecret, c.Token.RefreshSecret):
		return errors.New("Token secrets must differ per kind")
	case c.Token.AccessTTL <= 0:
		return errors.New("Token.AccessTTL must be positive")
	case c.Token.RefreshTTL <= 0:
		return errors.New("Token.RefreshTTL must be positive")
	case c.Token.Leeway < 0:
		return errors.New("Token.Leeway must not be negative")
	case c.Verification.ChallengeTTL <= 0:
		return errors.New("Verification.ChallengeTTL must be positive")
	}

	if c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost {
		return errors.New("Password.Cost out of range")
	}

	if !c.Provider.Empty() {
		switch {
		case c.Provider.ClientID == "" || c.Provider.ClientSecret == "":
			return errors.New("Provider credentials are incomplete")
		case c.Provider.RedirectURI == "":
			return errors.New("Provider.RedirectURI is required")
		case c.Provider.AuthURL == "" || c.Provider.TokenURL == "" || c.Provider.UserInfoURL == "":
			return errors.New("Provider endpoint urls are incomplete")
		case c.Provider.ExchangeTimeout <= 0:
			return errors.New("Provider.ExchangeTimeout must be positive")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when auditing is enabled")
	}

	return nil
}
