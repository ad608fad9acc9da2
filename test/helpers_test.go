//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/solvrex/authforge"
	"github.com/solvrex/authforge/account"
	redisstore "github.com/solvrex/authforge/store/redis"
)

type tokenMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newTokenMailer() *tokenMailer {
	return &tokenMailer{tokens: make(map[string]string)}
}

func (m *tokenMailer) SendVerificationEmail(_ context.Context, address, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[address] = token
	return nil
}

func (m *tokenMailer) token(address string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[address]
}

func integrationConfig() authforge.Config {
	return authforge.Config{
		Token: authforge.TokenConfig{
			AccessSecret:  []byte("integration-access-secret"),
			RefreshSecret: []byte("integration-refresh-secret"),
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
		},
		Verification: authforge.VerificationConfig{ChallengeTTL: time.Hour},
		Password:     authforge.PasswordConfig{Cost: 4},
		Metrics:      authforge.MetricsConfig{Enabled: true},
	}
}

func newRedisRepository(t *testing.T) account.Repository {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client, "af")
}

func newIntegrationEngine(t *testing.T, repo account.Repository) (*authforge.Engine, *tokenMailer) {
	t.Helper()

	m := newTokenMailer()
	engine, err := authforge.New().
		WithConfig(integrationConfig()).
		WithRepository(repo).
		WithMailer(m).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine, m
}
