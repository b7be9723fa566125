package oauth

// State is the callback handler's position in the exchange.
type State int

const (
	// StateIdle means no one-time token has been seen.
	StateIdle State = iota

	// StateVerifying means an exchange is in flight.
	StateVerifying

	// StateVerified means the exchange succeeded, or was already done by an
	// earlier invocation. The session still has to be verified.
	StateVerified

	// StateFailed means the exchange failed and a redirect to login is scheduled.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateVerifying:
		return "verifying"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
