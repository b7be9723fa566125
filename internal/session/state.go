package session

import "moltyverse/internal/credential"

// State is what observers see: the current user, if any, and whether a
// verification is still outstanding.
type State struct {
	User    *credential.User
	Loading bool
}

// Authenticated reports whether a user is present.
func (s State) Authenticated() bool {
	return s.User != nil
}

// phase is the internal two-part state. Cached comes from the credential
// store and is shown immediately; Verified is the backend's authoritative
// record and wins whenever it is set.
type phase struct {
	Cached   *credential.User
	Verified *credential.User
	Loading  bool
}

type actionKind int

const (
	actionBegin actionKind = iota
	actionHydrate
	actionVerified
	actionSignedOut
)

type action struct {
	kind actionKind
	user *credential.User
}

// reduce is the only place phase changes.
func reduce(p phase, a action) phase {
	switch a.kind {
	case actionBegin:
		p.Loading = true
	case actionHydrate:
		// A verified record for the same account stays in place so the
		// visible user does not flicker back to the cached copy.
		if p.Verified != nil && (a.user == nil || p.Verified.ID != a.user.ID) {
			p.Verified = nil
		}
		p.Cached = a.user
	case actionVerified:
		p.Cached = a.user
		p.Verified = a.user
		p.Loading = false
	case actionSignedOut:
		return phase{}
	}
	return p
}

func (p phase) view() State {
	u := p.Verified
	if u == nil {
		u = p.Cached
	}
	if u != nil {
		cp := *u
		u = &cp
	}
	return State{User: u, Loading: p.Loading}
}
