package authforge

import (
	"io"

	"github.com/solvrex/authforge/internal/audit"
)

// AuditEvent is the structured record emitted once per engine intent
// outcome.
type AuditEvent = audit.Event

// AuditSink consumes emitted audit events.
type AuditSink = audit.Sink

// NoOpAuditSink discards audit events.
type NoOpAuditSink = audit.NoOpSink

// ChannelAuditSink buffers audit events in a channel for the caller to
// drain.
type ChannelAuditSink = audit.ChannelSink

// NewChannelAuditSink creates a ChannelAuditSink with the given capacity.
func NewChannelAuditSink(buffer int) *ChannelAuditSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONAuditSink creates a sink that writes one JSON event per line to w.
func NewJSONAuditSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

// Audit event names, one per intent outcome.
const (
	EventRegisterCreated     = "register_created"
	EventRegisterResent      = "register_resent"
	EventRegisterFailure     = "register_failure"
	EventLoginSuccess        = "login_success"
	EventLoginFailure        = "login_failure"
	EventLoginUnverified     = "login_unverified_resend"
	EventRefreshSuccess      = "refresh_success"
	EventRefreshFailure      = "refresh_failure"
	EventVerifySuccess       = "verify_success"
	EventVerifyFailure       = "verify_failure"
	EventFederatedSuccess    = "federated_success"
	EventFederatedFailure    = "federated_failure"
	EventFederatedRedirect   = "federated_redirect"
	EventFederatedUnverified = "federated_unverified_resend"
)
