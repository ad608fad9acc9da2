// Package verification owns the email-ownership challenge lifecycle: issuing
// an opaque single-use token with a bounded lifetime, delivering it through a
// caller-supplied mailer, and redeeming it to flip an account to verified.
//
// # Architecture boundaries
//
// The ledger persists challenges through account.Repository and never talks
// to the network itself; delivery is the Mailer's concern. Atomicity of
// issuance and redemption is delegated to the repository contract.
//
// # What this package must NOT do
//
//   - Mint or validate signed tokens (that is the token package).
//   - Decide what happens after verification (the Engine's concern).
package verification
