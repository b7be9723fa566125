package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"moltyverse/internal/credential"
	"moltyverse/internal/session"
)

type recordingNav struct {
	replaced []string
	assigned []string
}

func (n *recordingNav) Replace(target string) { n.replaced = append(n.replaced, target) }
func (n *recordingNav) Assign(target string)  { n.assigned = append(n.assigned, target) }

var signedIn = session.State{User: &credential.User{ID: "u1"}}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name     string
		state    session.State
		target   string
		redirect bool
		want     []string
	}{
		{name: "loading signed out waits", state: session.State{Loading: true}},
		{name: "loading with cached user waits", state: session.State{User: signedIn.User, Loading: true}},
		{name: "signed in stays", state: signedIn},
		{name: "signed out goes to default", state: session.State{}, redirect: true, want: []string{"/login"}},
		{name: "signed out goes to target", state: session.State{}, target: "/welcome", redirect: true, want: []string{"/welcome"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &recordingNav{}
			assert.Equal(t, tt.redirect, RequireAuth(tt.state, nav, tt.target))
			assert.Equal(t, tt.want, nav.replaced)
			assert.Empty(t, nav.assigned)
		})
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	tests := []struct {
		name     string
		state    session.State
		target   string
		redirect bool
		want     []string
	}{
		{name: "loading waits", state: session.State{User: signedIn.User, Loading: true}},
		{name: "signed out stays", state: session.State{}},
		{name: "signed in goes to default", state: signedIn, redirect: true, want: []string{"/dashboard"}},
		{name: "signed in goes to target", state: signedIn, target: "/feed", redirect: true, want: []string{"/feed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &recordingNav{}
			assert.Equal(t, tt.redirect, RedirectIfAuthenticated(tt.state, nav, tt.target))
			assert.Equal(t, tt.want, nav.replaced)
		})
	}
}

func TestWatchRequireAuth_WaitsForLoadingToFinish(t *testing.T) {
	states := make(chan session.State, 3)
	states <- session.State{Loading: true}
	states <- session.State{Loading: true}
	states <- session.State{}

	nav := &recordingNav{}
	assert.True(t, WatchRequireAuth(context.Background(), states, nav, ""))
	assert.Equal(t, []string{"/login"}, nav.replaced)
}

func TestWatch_ChannelClosed(t *testing.T) {
	states := make(chan session.State, 1)
	states <- session.State{}
	close(states)

	nav := &recordingNav{}
	assert.False(t, Watch(context.Background(), states, RedirectIfAuthenticated, nav, ""))
	assert.Empty(t, nav.replaced)
}

func TestWatch_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	nav := &recordingNav{}
	assert.False(t, WatchRequireAuth(ctx, make(chan session.State), nav, ""))
}
