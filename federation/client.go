package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrExchange is returned for every failed code exchange: transport errors,
// non-200 responses, malformed payloads, and timeouts.
var ErrExchange = errors.New("federation: code exchange failed")

// DefaultExchangeTimeout bounds the provider round trips when the config
// leaves ExchangeTimeout zero.
const DefaultExchangeTimeout = 10 * time.Second

// Assertion is the identity claim a provider makes about the authenticated
// subject.
type Assertion struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// Config describes one OAuth provider.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	// ExchangeTimeout caps the combined token-exchange and userinfo round
	// trips so a slow provider cannot hang a request.
	ExchangeTimeout time.Duration
}

func (c Config) validate() error {
	switch {
	case c.ClientID == "":
		return errors.New("federation: client id is required")
	case c.ClientSecret == "":
		return errors.New("federation: client secret is required")
	case c.RedirectURI == "":
		return errors.New("federation: redirect uri is required")
	case c.AuthURL == "", c.TokenURL == "", c.UserInfoURL == "":
		return errors.New("federation: auth, token, and userinfo urls are required")
	}
	return nil
}

// Client performs the code exchange against one provider.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a Client from a validated provider config. A nil
// httpClient gets a dedicated client; either way the exchange timeout is
// enforced.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ExchangeTimeout <= 0 {
		cfg.ExchangeTimeout = DefaultExchangeTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

// AuthorizationURL builds the provider authorize URL for the caller to
// redirect the user to.
func (c *Client) AuthorizationURL(state string) string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", c.cfg.ClientID)
	query.Set("redirect_uri", c.cfg.RedirectURI)
	query.Set("scope", strings.Join(c.cfg.Scopes, " "))
	query.Set("access_type", "offline")
	if state != "" {
		query.Set("state", state)
	}
	return c.cfg.AuthURL + "?" + query.Encode()
}

// Exchange trades an authorization code for an identity assertion: POST form
// code exchange, then a userinfo fetch with the bearer token. Both round
// trips run under the configured timeout; any failure wraps ErrExchange.
func (c *Client) Exchange(ctx context.Context, code string) (Assertion, error) {
	if code == "" {
		return Assertion{}, fmt.Errorf("%w: empty code", ErrExchange)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ExchangeTimeout)
	defer cancel()

	accessToken, err := c.exchangeCode(ctx, code)
	if err != nil {
		return Assertion{}, err
	}
	return c.fetchUserInfo(ctx, accessToken)
}

func (c *Client) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchange, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrExchange, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchange, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: missing access token", ErrExchange)
	}
	return payload.AccessToken, nil
}

func (c *Client) fetchUserInfo(ctx context.Context, accessToken string) (Assertion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return Assertion{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Assertion{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Assertion{}, fmt.Errorf("%w: userinfo endpoint returned %d", ErrExchange, resp.StatusCode)
	}

	var payload struct {
		Sub           string `json:"sub"`
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Assertion{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	subject := payload.Sub
	if subject == "" {
		subject = payload.ID
	}
	if subject == "" || payload.Email == "" {
		return Assertion{}, fmt.Errorf("%w: assertion missing subject or email", ErrExchange)
	}

	return Assertion{
		Subject:       subject,
		Email:         payload.Email,
		Name:          payload.Name,
		EmailVerified: payload.EmailVerified,
	}, nil
}
