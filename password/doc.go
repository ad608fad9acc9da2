// Package password implements one-way password hashing and verification on
// bcrypt with a configurable work factor.
//
// # Output format
//
// Hashes are bcrypt modular-crypt strings ($2a$<cost>$<salt+digest>); the salt
// is random per hash and embedded in the encoding, so Hash is never
// deterministic. Verification is constant-time in the digest comparison.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy and the
// decision of when to hash belong to the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other authforge package.
//   - Log plaintext passwords.
package password
