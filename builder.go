package authforge

import (
	"errors"
	"net/http"

	"github.com/solvrex/authforge/account"
	"github.com/solvrex/authforge/federation"
	"github.com/solvrex/authforge/internal/audit"
	"github.com/solvrex/authforge/password"
	"github.com/solvrex/authforge/token"
	"github.com/solvrex/authforge/verification"
)

// Builder assembles an Engine. Single use; a built builder rejects further
// Build calls.
type Builder struct {
	config Config

	repo     account.Repository
	mailer   Mailer
	provider IdentityProvider

	auditSink  AuditSink
	httpClient *http.Client

	built bool
}

// New starts a builder with default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRepository sets the account store. Required.
func (b *Builder) WithRepository(repo account.Repository) *Builder {
	b.repo = repo
	return b
}

// WithMailer sets the verification mail collaborator. Required.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithProvider sets the federated identity collaborator directly, overriding
// any Provider section in the config.
func (b *Builder) WithProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithAuditSink sets the destination for audit events. Without one, enabled
// auditing falls back to a no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithHTTPClient sets the HTTP client used for provider exchanges built from
// the config's Provider section.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithMetricsEnabled toggles the engine counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, constructs every internal component,
// and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.repo == nil {
		return nil, errors.New("repository required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	hasher, err := password.NewHasher(password.Config{Cost: cfg.Password.Cost})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	ledger, err := verification.NewLedger(b.repo, b.mailer, cfg.Verification.ChallengeTTL)
	if err != nil {
		return nil, err
	}

	provider := b.provider
	if provider == nil && !cfg.Provider.Empty() {
		client, err := federation.NewClient(federation.Config{
			ClientID:        cfg.Provider.ClientID,
			ClientSecret:    cfg.Provider.ClientSecret,
			RedirectURI:     cfg.Provider.RedirectURI,
			AuthURL:         cfg.Provider.AuthURL,
			TokenURL:        cfg.Provider.TokenURL,
			UserInfoURL:     cfg.Provider.UserInfoURL,
			Scopes:          cfg.Provider.Scopes,
			ExchangeTimeout: cfg.Provider.ExchangeTimeout,
		}, b.httpClient)
		if err != nil {
			return nil, err
		}
		provider = client
	}

	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	e := &Engine{
		cfg:        cfg,
		repo:       b.repo,
		hasher:     hasher,
		tokens:     tokens,
		ledger:     ledger,
		provider:   provider,
		metrics:    NewMetrics(cfg.Metrics),
		dispatcher: dispatcher,
	}
	e.deps = e.buildFlowDeps()

	b.built = true
	return e, nil
}
