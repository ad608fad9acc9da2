// Package redisstore is a Redis-backed account.Repository. Account records
// live as JSON values keyed by id, with plain index keys for email and
// verification-token lookups. Challenge issuance and redemption run as Lua
// scripts so each read-modify-write is a single atomic step.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/solvrex/authforge/account"
)

const defaultPrefix = "af"

// createLua claims the email index and writes the record in one step.
// KEYS[1] = email index key, KEYS[2] = account key
// ARGV[1] = account id, ARGV[2] = record JSON
var createLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return {err='duplicate'}
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
return 'OK'
`)

// setChallengeLua stores a fresh challenge on the record, dropping any prior
// token index.
// KEYS[1] = account key
// ARGV[1] = token, ARGV[2] = expiry (RFC3339Nano), ARGV[3] = token index
// prefix, ARGV[4] = updated timestamp
var setChallengeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end
local acct = cjson.decode(data)
if acct.verification_token and acct.verification_token ~= '' then
  redis.call('DEL', ARGV[3] .. acct.verification_token)
end
acct.verification_token = ARGV[1]
acct.verification_expires_at = ARGV[2]
acct.email_verified = false
acct.updated_at = ARGV[4]
redis.call('SET', KEYS[1], cjson.encode(acct))
redis.call('SET', ARGV[3] .. ARGV[1], acct.id)
return 'OK'
`)

// consumeLua atomically clears the live challenge and flips the record to
// verified. Failing when no challenge remains is what keeps two concurrent
// redemptions from both succeeding.
// KEYS[1] = account key
// ARGV[1] = token index prefix, ARGV[2] = updated timestamp
var consumeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end
local acct = cjson.decode(data)
if not acct.verification_token or acct.verification_token == '' then
  return {err='no_challenge'}
end
redis.call('DEL', ARGV[1] .. acct.verification_token)
acct.verification_token = ''
acct.verification_expires_at = ''
acct.email_verified = true
acct.updated_at = ARGV[2]
redis.call('SET', KEYS[1], cjson.encode(acct))
return 'OK'
`)

type record struct {
	ID                    string `json:"id"`
	Email                 string `json:"email"`
	Username              string `json:"username"`
	PasswordHash          string `json:"password_hash"`
	EmailVerified         bool   `json:"email_verified"`
	VerificationToken     string `json:"verification_token"`
	VerificationExpiresAt string `json:"verification_expires_at"`
	FederatedID           string `json:"federated_id"`
	CreatedAt             string `json:"created_at"`
	UpdatedAt             string `json:"updated_at"`
}

// Store implements account.Repository on a Redis client.
type Store struct {
	client redis.UniversalClient
	prefix string

	now func() time.Time
}

// New creates a Store. An empty prefix defaults to "af".
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

// WithClock overrides the timestamp source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) accountKey(id string) string  { return s.prefix + ":account:" + id }
func (s *Store) emailKey(email string) string { return s.prefix + ":email:" + email }
func (s *Store) tokenIndexPrefix() string     { return s.prefix + ":vtok:" }
func (s *Store) tokenKey(token string) string { return s.tokenIndexPrefix() + token }

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}

func toRecord(a *account.Account) record {
	return record{
		ID:                    a.ID,
		Email:                 a.Email,
		Username:              a.Username,
		PasswordHash:          a.PasswordHash,
		EmailVerified:         a.EmailVerified,
		VerificationToken:     a.VerificationToken,
		VerificationExpiresAt: encodeTime(a.VerificationExpiresAt),
		FederatedID:           a.FederatedID,
		CreatedAt:             encodeTime(a.CreatedAt),
		UpdatedAt:             encodeTime(a.UpdatedAt),
	}
}

func fromRecord(r record) (*account.Account, error) {
	expiresAt, err := decodeTime(r.VerificationExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("redisstore: decode expiry: %w", err)
	}
	createdAt, err := decodeTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("redisstore: decode created_at: %w", err)
	}
	updatedAt, err := decodeTime(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("redisstore: decode updated_at: %w", err)
	}
	return &account.Account{
		ID:                    r.ID,
		Email:                 r.Email,
		Username:              r.Username,
		PasswordHash:          r.PasswordHash,
		EmailVerified:         r.EmailVerified,
		VerificationToken:     r.VerificationToken,
		VerificationExpiresAt: expiresAt,
		FederatedID:           r.FederatedID,
		CreatedAt:             createdAt,
		UpdatedAt:             updatedAt,
	}, nil
}

func (s *Store) load(ctx context.Context, key string) (*account.Account, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("redisstore: get: %w", err)
	}
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("redisstore: decode record: %w", err)
	}
	return fromRecord(r)
}

// FindByEmail implements account.Repository.
func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	id, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("redisstore: email index: %w", err)
	}
	return s.load(ctx, s.accountKey(id))
}

// FindByID implements account.Repository.
func (s *Store) FindByID(ctx context.Context, id string) (*account.Account, error) {
	return s.load(ctx, s.accountKey(id))
}

// Create implements account.Repository. The email index claim and record
// write run in one script, so two racing creates cannot share an email.
func (s *Store) Create(ctx context.Context, in account.CreateInput) (*account.Account, error) {
	now := s.now().UTC()
	a := &account.Account{
		ID:            uuid.NewString(),
		Email:         in.Email,
		Username:      in.Username,
		PasswordHash:  in.PasswordHash,
		EmailVerified: in.EmailVerified,
		FederatedID:   in.FederatedID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	data, err := json.Marshal(toRecord(a))
	if err != nil {
		return nil, fmt.Errorf("redisstore: encode record: %w", err)
	}

	err = createLua.Run(ctx, s.client,
		[]string{s.emailKey(a.Email), s.accountKey(a.ID)},
		a.ID, string(data),
	).Err()
	if err != nil {
		if isScriptErr(err, "duplicate") {
			return nil, account.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("redisstore: create: %w", err)
	}
	return a, nil
}

// SetVerificationChallenge implements account.Repository.
func (s *Store) SetVerificationChallenge(ctx context.Context, id, token string, expiresAt time.Time) error {
	err := setChallengeLua.Run(ctx, s.client,
		[]string{s.accountKey(id)},
		token, encodeTime(expiresAt), s.tokenIndexPrefix(), encodeTime(s.now()),
	).Err()
	if err != nil {
		if isScriptErr(err, "not_found") {
			return account.ErrNotFound
		}
		return fmt.Errorf("redisstore: set challenge: %w", err)
	}
	return nil
}

// FindByVerificationToken implements account.Repository. Expiry is the
// caller's check.
func (s *Store) FindByVerificationToken(ctx context.Context, token string) (*account.Account, error) {
	id, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("redisstore: token index: %w", err)
	}
	acct, err := s.load(ctx, s.accountKey(id))
	if err != nil {
		return nil, err
	}
	// The index can briefly outlive a displaced token; trust the record.
	if acct.VerificationToken != token {
		return nil, account.ErrNotFound
	}
	return acct, nil
}

// ClearVerificationAndMarkVerified implements account.Repository.
func (s *Store) ClearVerificationAndMarkVerified(ctx context.Context, id string) error {
	err := consumeLua.Run(ctx, s.client,
		[]string{s.accountKey(id)},
		s.tokenIndexPrefix(), encodeTime(s.now()),
	).Err()
	if err != nil {
		switch {
		case isScriptErr(err, "not_found"):
			return account.ErrNotFound
		case isScriptErr(err, "no_challenge"):
			return account.ErrNoLiveChallenge
		default:
			return fmt.Errorf("redisstore: consume challenge: %w", err)
		}
	}
	return nil
}

func isScriptErr(err error, code string) bool {
	return err != nil && err.Error() == code
}
