// Package federation bridges an external OAuth identity provider into the
// local account model. It exchanges an authorization code for an identity
// assertion (subject, email, name, verified flag) and builds the provider
// authorization URL for callers to redirect to.
//
// # Architecture boundaries
//
// The client speaks plain HTTP to the configured provider endpoints under a
// mandatory bounded timeout. It knows nothing about accounts; reconciliation
// of an assertion to a local account is the Engine's flow.
//
// # What this package must NOT do
//
//   - Persist provider tokens or assertions.
//   - Retry or fall back silently; every exchange failure is terminal.
package federation
