package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"moltyverse/internal/credential"
)

func TestReduce(t *testing.T) {
	cached := &credential.User{ID: "u1", DisplayName: "cached"}
	fresh := &credential.User{ID: "u1", DisplayName: "fresh"}
	other := &credential.User{ID: "u2"}

	tests := []struct {
		name    string
		start   phase
		actions []action
		want    State
	}{
		{
			name:    "begin marks loading",
			actions: []action{{kind: actionBegin}},
			want:    State{Loading: true},
		},
		{
			name:    "hydrate shows cached user",
			actions: []action{{kind: actionBegin}, {kind: actionHydrate, user: cached}},
			want:    State{User: cached, Loading: true},
		},
		{
			name:    "verified wins over cached",
			actions: []action{{kind: actionHydrate, user: cached}, {kind: actionVerified, user: fresh}},
			want:    State{User: fresh},
		},
		{
			name:    "rehydrating same account keeps verified record",
			start:   phase{Cached: fresh, Verified: fresh},
			actions: []action{{kind: actionBegin}, {kind: actionHydrate, user: cached}},
			want:    State{User: fresh, Loading: true},
		},
		{
			name:    "hydrating another account drops verified record",
			start:   phase{Cached: fresh, Verified: fresh},
			actions: []action{{kind: actionHydrate, user: other}},
			want:    State{User: other},
		},
		{
			name:    "sign out resets everything",
			start:   phase{Cached: cached, Verified: fresh, Loading: true},
			actions: []action{{kind: actionSignedOut}},
			want:    State{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.start
			for _, a := range tt.actions {
				p = reduce(p, a)
			}
			assert.Equal(t, tt.want, p.view())
		})
	}
}

func TestView_ReturnsCopy(t *testing.T) {
	u := &credential.User{ID: "u1", Username: "alice"}
	v := phase{Verified: u}.view()
	v.User.Username = "mallory"
	assert.Equal(t, "alice", u.Username)
}
