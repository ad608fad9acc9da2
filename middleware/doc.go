// Package middleware exposes HTTP middleware adapters for bearer-token
// enforcement built on top of authforge.Engine validation.
//
// # Guards
//
//   - [Guard] validates the Authorization bearer token and injects the
//     account ID into the request context.
//   - [RequireVerified] additionally loads the account and rejects requests
//     from accounts whose email is still unverified.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to the
// engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine.ValidateAccess).
//   - Touch the account repository (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the engine.
package middleware
