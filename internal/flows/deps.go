package flows

import "context"

// EmitFunc is the audit emission hook shared by all flows. Metadata is built
// lazily so disabled auditing costs nothing. The context carries request
// attribution such as the client IP.
type EmitFunc func(ctx context.Context, eventType string, success bool, accountID, email string, err error, meta func() map[string]string)

// Deps groups the per-intent dependency sets. The Engine builds this once at
// construction and delegates each public method to the matching flow.
type Deps struct {
	Register  RegisterDeps
	Login     LoginDeps
	Refresh   RefreshDeps
	Federated FederatedDeps
}
