package oauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartURL(t *testing.T) {
	got, err := StartURL("https://auth.example.com/base", "http://localhost:3000/callback")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/base/auth/oauth/start", u.Path)
	assert.Equal(t, "http://localhost:3000/callback", u.Query().Get("redirect_uri"))
}

func TestCallbackServer_ProcessesOnce(t *testing.T) {
	var got []*url.URL
	s := NewCallbackServer(0, func(_ context.Context, u *url.URL) error {
		got = append(got, u)
		return nil
	})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/callback?ott=abc")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Signed in")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	require.Len(t, got, 1)
	assert.Equal(t, "abc", got[0].Query().Get(OneTimeTokenParam))
	assert.NoError(t, s.Wait(context.Background()))

	resp, err = http.Get(ts.URL + "/callback?ott=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, got, 1)
}

func TestCallbackServer_FailureRendersMessage(t *testing.T) {
	processErr := errors.New("exchange rejected")
	s := NewCallbackServer(0, func(context.Context, *url.URL) error { return processErr })
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/callback?ott=abc")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Contains(t, string(body), "Sign-in failed")
	assert.ErrorIs(t, s.Wait(context.Background()), processErr)
}

func TestCallbackServer_StartAndStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewCallbackServer(0, func(context.Context, *url.URL) error { return nil })
	s.port = 0
	redirect, err := s.Start(ctx)
	require.NoError(t, err)
	assert.NotZero(t, s.Port())
	assert.Equal(t, s.RedirectURI(), redirect)

	s.Stop()
	s.Stop()
}

func TestBrowserCommand(t *testing.T) {
	name, args, err := browserCommand("linux", "https://x")
	require.NoError(t, err)
	assert.Equal(t, "xdg-open", name)
	assert.Equal(t, []string{"https://x"}, args)

	name, _, err = browserCommand("darwin", "https://x")
	require.NoError(t, err)
	assert.Equal(t, "open", name)

	_, _, err = browserCommand("plan9", "https://x")
	assert.Error(t, err)
}
