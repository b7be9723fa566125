package logging

import (
	"context"
	"log/slog"
)

// AuditEvent describes a security-relevant action such as a login, a token
// refresh or a credential wipe. Token values must never be placed in it.
type AuditEvent struct {
	// Action is what happened, e.g. "login", "token_refresh", "credential_clear".
	Action string
	// Outcome is "success" or "failure".
	Outcome string
	// UserID identifies the account, if known.
	UserID string
	// Target is the endpoint or resource involved.
	Target string
	// Reason carries a short failure description.
	Reason string
}

// Audit logs an audit event at INFO level with an [AUDIT] prefix so log
// aggregation can filter on it.
func Audit(event AuditEvent) {
	logger := current()
	if logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("subsystem", "Audit"),
		slog.String("action", event.Action),
		slog.String("outcome", event.Outcome),
	}
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Target != "" {
		attrs = append(attrs, slog.String("target", event.Target))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}

	logger.LogAttrs(context.Background(), slog.LevelInfo, "[AUDIT] "+event.Action, attrs...)
}

// TruncateToken returns a short, non-reversible prefix of a secret suitable
// for correlating log lines. Short values are fully masked.
func TruncateToken(token string) string {
	const keep = 6
	if len(token) <= keep*2 {
		return "***"
	}
	return token[:keep] + "..."
}
