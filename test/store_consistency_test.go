//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solvrex/authforge/account"
	"github.com/solvrex/authforge/store/memory"
)

// Both repository implementations must expose the same observable behavior
// for the same operation sequence.
func TestStoreConsistencyAcrossBackends(t *testing.T) {
	backends := []struct {
		name string
		repo func(t *testing.T) account.Repository
	}{
		{"memory", func(t *testing.T) account.Repository { return memory.New() }},
		{"redis", newRedisRepository},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			repo := b.repo(t)

			acct, err := repo.Create(ctx, account.CreateInput{
				Email:        "same@example.com",
				Username:     "same",
				PasswordHash: "$2a$04$fakefakefakefakefakefuXDdLEYFcmvYyYgKSc9fGhhUWC3eGJG6",
			})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			if _, err := repo.Create(ctx, account.CreateInput{
				Email:        "same@example.com",
				Username:     "other",
				PasswordHash: "x",
			}); !errors.Is(err, account.ErrDuplicateEmail) {
				t.Fatalf("duplicate create: got %v, want ErrDuplicateEmail", err)
			}

			expires := time.Now().Add(time.Hour).UTC()
			if err := repo.SetVerificationChallenge(ctx, acct.ID, "tok-1", expires); err != nil {
				t.Fatalf("SetVerificationChallenge failed: %v", err)
			}
			if err := repo.SetVerificationChallenge(ctx, acct.ID, "tok-2", expires); err != nil {
				t.Fatalf("second SetVerificationChallenge failed: %v", err)
			}

			// The displaced token no longer resolves.
			if _, err := repo.FindByVerificationToken(ctx, "tok-1"); !errors.Is(err, account.ErrNotFound) {
				t.Fatalf("displaced token lookup: got %v, want ErrNotFound", err)
			}
			found, err := repo.FindByVerificationToken(ctx, "tok-2")
			if err != nil {
				t.Fatalf("live token lookup failed: %v", err)
			}
			if found.ID != acct.ID {
				t.Fatalf("token resolved to %q, want %q", found.ID, acct.ID)
			}

			if err := repo.ClearVerificationAndMarkVerified(ctx, acct.ID); err != nil {
				t.Fatalf("ClearVerificationAndMarkVerified failed: %v", err)
			}
			if err := repo.ClearVerificationAndMarkVerified(ctx, acct.ID); !errors.Is(err, account.ErrNoLiveChallenge) {
				t.Fatalf("second clear: got %v, want ErrNoLiveChallenge", err)
			}

			got, err := repo.FindByID(ctx, acct.ID)
			if err != nil {
				t.Fatalf("FindByID failed: %v", err)
			}
			if !got.EmailVerified {
				t.Fatal("cleared account must be verified")
			}
			if got.VerificationToken != "" {
				t.Fatal("cleared account must not keep a token")
			}
		})
	}
}
