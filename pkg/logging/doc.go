// Package logging provides the structured logging used across moltyverse.
//
// It is a thin layer over log/slog that tags every entry with a subsystem
// name and adds audit events for security-sensitive operations.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Session", "Restored session for %s", user.Username)
//	logging.Warn("Consumer", "Molty list refresh failed, showing empty list")
//	logging.Error("Gateway", err, "Refresh request failed")
//
// # Subsystems
//
//   - Config: configuration loading and validation
//   - Credential: credential persistence
//   - Gateway: outbound API requests and token refresh
//   - OAuth: one-time-token exchange and the loopback callback server
//   - Session: session initialization, login and logout
//   - Consumer: dashboard data fetching
//
// # Audit Logging
//
//	logging.Audit(logging.AuditEvent{
//	    Action:  "token_refresh",
//	    Outcome: "failure",
//	    Reason:  "refresh token rejected",
//	})
//
// Audit events are logged at INFO level with an [AUDIT] prefix. Token values
// are never logged; use TruncateToken when a correlation handle is needed.
package logging
