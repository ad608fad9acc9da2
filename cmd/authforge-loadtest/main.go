// Command authforge-loadtest seeds verified accounts into a Redis-backed
// repository and measures login, access-token validation, and refresh
// throughput under concurrency. Without -redis-addr (or REDIS_ADDR) it runs
// against an embedded miniredis, so it doubles as a Lua-script smoke test for
// the Redis store.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/solvrex/authforge"
	"github.com/solvrex/authforge/mailer"
	redisstore "github.com/solvrex/authforge/store/redis"
)

type accountState struct {
	email        string
	password     string
	refreshToken string
	mu           sync.Mutex
}

func main() {
	var (
		accounts    = flag.Int("accounts", 1000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "af", "redis key prefix")
		hashCost    = flag.Int("hash-cost", 4, "bcrypt cost for seeded passwords")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	challenges := struct {
		sync.Mutex
		byEmail map[string]string
	}{byEmail: make(map[string]string)}

	cfg, err := authforge.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.Token.AccessSecret = []byte("loadtest-access-secret")
	cfg.Token.RefreshSecret = []byte("loadtest-refresh-secret")
	cfg.Password.Cost = *hashCost
	cfg.Audit.Enabled = false

	engine, err := authforge.New().
		WithConfig(cfg).
		WithRepository(redisstore.New(client, *prefix)).
		WithMailer(mailer.Func(func(ctx context.Context, address, token string) error {
			challenges.Lock()
			challenges.byEmail[address] = token
			challenges.Unlock()
			return nil
		})).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]accountState, *accounts)
	fmt.Printf("seeding %d verified accounts...\n", *accounts)
	startSeed := time.Now()
	for i := 0; i < *accounts; i++ {
		email := fmt.Sprintf("load-%d@example.com", i)
		password := fmt.Sprintf("load-password-%d", i)
		if _, err := engine.Register(ctx, email, fmt.Sprintf("load-%d", i), password); err != nil {
			fmt.Fprintf(os.Stderr, "register %s: %v\n", email, err)
			os.Exit(1)
		}
		challenges.Lock()
		token := challenges.byEmail[email]
		challenges.Unlock()
		if _, err := engine.VerifyEmail(ctx, token); err != nil {
			fmt.Fprintf(os.Stderr, "verify %s: %v\n", email, err)
			os.Exit(1)
		}
		res, err := engine.Login(ctx, email, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "login %s: %v\n", email, err)
			os.Exit(1)
		}
		states[i] = accountState{
			email:        email,
			password:     password,
			refreshToken: res.Tokens.RefreshToken,
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		state := &states[r.Intn(len(states))]
		_, err := engine.Login(ctx, state.email, state.password)
		return err
	})

	// Mint one access token per state up front so the validate phase
	// measures token checks, not bcrypt.
	accessTokens := make([]string, len(states))
	for i := range states {
		res, err := engine.Login(ctx, states[i].email, states[i].password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pre-mint login: %v\n", err)
			os.Exit(1)
		}
		accessTokens[i] = res.Tokens.AccessToken
	}

	validateStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		_, err := engine.ValidateAccess(accessTokens[r.Intn(len(accessTokens))])
		return err
	})

	refreshStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()
		_, err := engine.Refresh(ctx, state.refreshToken)
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("validate", validateStats)
	printStats("refresh", refreshStats)
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
