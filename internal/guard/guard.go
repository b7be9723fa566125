// Package guard redirects based on session state.
//
// Both guards wait while the session is loading so that a user who is about
// to be verified is never bounced to the login page.
package guard

import (
	"context"

	"moltyverse/internal/navigation"
	"moltyverse/internal/session"
	"moltyverse/pkg/logging"
)

// Default redirect targets.
const (
	DefaultLoginPath     = "/login"
	DefaultDashboardPath = "/dashboard"
)

// Guard decides from a state whether to redirect, and does it.
type Guard func(state session.State, nav navigation.Navigator, target string) bool

// RequireAuth sends signed-out users to target, or DefaultLoginPath when empty.
// It reports whether it redirected.
func RequireAuth(state session.State, nav navigation.Navigator, target string) bool {
	if state.Loading || state.Authenticated() {
		return false
	}
	if target == "" {
		target = DefaultLoginPath
	}
	logging.Debug("Guard", "Not authenticated, redirecting to %s", target)
	nav.Replace(target)
	return true
}

// RedirectIfAuthenticated sends signed-in users to target, or
// DefaultDashboardPath when empty. It reports whether it redirected.
func RedirectIfAuthenticated(state session.State, nav navigation.Navigator, target string) bool {
	if state.Loading || !state.Authenticated() {
		return false
	}
	if target == "" {
		target = DefaultDashboardPath
	}
	logging.Debug("Guard", "Already authenticated, redirecting to %s", target)
	nav.Replace(target)
	return true
}

// Watch applies g to every state from states until the channel closes or
// ctx ends. It returns after the first redirect.
func Watch(ctx context.Context, states <-chan session.State, g Guard, nav navigation.Navigator, target string) bool {
	for {
		select {
		case st, ok := <-states:
			if !ok {
				return false
			}
			if g(st, nav, target) {
				return true
			}
		case <-ctx.Done():
			return false
		}
	}
}

// WatchRequireAuth is Watch with RequireAuth.
func WatchRequireAuth(ctx context.Context, states <-chan session.State, nav navigation.Navigator, target string) bool {
	return Watch(ctx, states, RequireAuth, nav, target)
}
