// Package authforge is an identity credential engine: password registration
// and login, JWT access/refresh token pairs signed with independent secrets,
// an email-ownership verification challenge lifecycle, and federated OAuth
// login that merges into or creates local accounts.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authforge is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types (TokenPair, MetricsSnapshot, AuditEvent).
// Flow orchestration and audit dispatch live under internal/ and are never
// exported directly. Persistence, mail delivery, and the identity provider
// are injected collaborators; the shipped implementations live in store/,
// mailer/, and federation/.
//
// # What this package must NOT do
//
//   - Expose repository clients or wire formats in its public API.
//   - Persist issued tokens; access and refresh tokens are stateless.
//   - Confirm account existence through error shapes on the login path.
package authforge
