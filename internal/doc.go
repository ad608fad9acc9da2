// Package internal contains helper utilities that are intentionally private
// to authforge, including secure random token generation and username
// derivation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function flow orchestrators for every Engine intent
//
// # What this package must NOT do
//
//   - Export types that appear in the public authforge API.
//   - Be imported by any package outside the authforge module.
package internal
