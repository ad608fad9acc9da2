// Package flows contains pure-function orchestrators for every Engine intent.
//
// Each flow function (RunRegister, RunLogin, RunRefresh, RunFederatedLogin)
// accepts a typed dependency struct and returns results without side effects
// beyond those dependencies. The Engine stays thin and every transition is
// unit-testable with plain function fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate the repository, password hasher, token manager,
// verification ledger, identity provider, audit dispatcher, and metrics. They
// do NOT own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authforge (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency fields.
package flows
