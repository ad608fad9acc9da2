package test

import (
	"context"
	"fmt"

	"github.com/solvrex/authforge"
	"github.com/solvrex/authforge/mailer"
	"github.com/solvrex/authforge/store/memory"
)

// ExampleNew demonstrates engine construction with production-style
// dependencies.
func ExampleNew() {
	cfg, _ := authforge.ConfigFromEnv()
	cfg.Token.AccessSecret = []byte("example-access-secret")
	cfg.Token.RefreshSecret = []byte("example-refresh-secret")

	engine, _ := authforge.New().
		WithConfig(cfg).
		WithRepository(memory.New()).
		WithMailer(mailer.Func(func(ctx context.Context, address, token string) error {
			fmt.Printf("mail %s a link containing %s\n", address, token)
			return nil
		})).
		Build()
	defer engine.Close()
}

// ExampleEngine_Login shows a typical login entrypoint call and structured
// error handling.
func ExampleEngine_Login() {
	var engine *authforge.Engine
	res, err := engine.Login(context.Background(), "alice@example.com", "password")
	if err != nil {
		_ = err
		return
	}
	if res.VerificationResent {
		// No tokens yet; the account owner has mail to read.
		return
	}
	_ = res.Tokens.AccessToken
}

// ExampleEngine_MetricsSnapshot shows how to read in-process metrics
// counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *authforge.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot
}
