package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moltyverse/internal/cli"
	"moltyverse/internal/credential"
)

func TestSetVersion(t *testing.T) {
	original := rootCmd.Version
	defer SetVersion(original)

	SetVersion("1.2.3-test")
	if GetVersion() != "1.2.3-test" {
		t.Errorf("Expected version to be %s, got %s", "1.2.3-test", GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "moltyverse" {
		t.Errorf("Expected Use to be 'moltyverse', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "moltyverse version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	require.NoError(t, testCmd.Execute())

	assert.Equal(t, "moltyverse version 1.0.0\n", buf.String())
}

func TestSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}

	for _, name := range []string{"version", "self-update", "auth", "config", "moltys", "feed", "messages", "billing", "call"} {
		assert.True(t, found[name], "expected subcommand %q", name)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), ExitCodeError},
		{"auth required", &cli.AuthRequiredError{Endpoint: "x"}, ExitCodeAuthRequired},
		{"auth expired", &cli.AuthExpiredError{Endpoint: "x"}, ExitCodeAuthRequired},
		{"auth failed wrapped", fmt.Errorf("login: %w", &cli.AuthFailedError{Endpoint: "x", Reason: errors.New("nope")}), ExitCodeAuthFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestParseDirection(t *testing.T) {
	up, err := parseDirection("up")
	require.NoError(t, err)
	assert.Equal(t, 1, up)

	down, err := parseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, -1, down)

	_, err = parseDirection("sideways")
	assert.Error(t, err)
}

// executeRoot runs the root command against a throwaway configuration
// directory, in-memory credentials and an API served by handler.
func executeRoot(t *testing.T, handler http.Handler, args ...string) (string, error) {
	t.Helper()
	return executeRootIn(t, t.TempDir(), "memory", handler, args...)
}

// executeRootIn runs the root command with configDir and the given storage
// backend. File credentials live in configDir/credentials.
func executeRootIn(t *testing.T, configDir, backend string, handler http.Handler, args ...string) (string, error) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("MOLTYVERSE_API_BASE_URL", srv.URL)
	t.Setenv("MOLTYVERSE_STORAGE_BACKEND", backend)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		outputFormat = string(cli.OutputFormatTable)
	})

	rootCmd.SetArgs(append([]string{"--config-path", configDir, "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

// signedInConfig returns a configuration directory holding a stored
// credential for ada.
func signedInConfig(t *testing.T) (string, *credential.FileStore) {
	t.Helper()
	dir := t.TempDir()
	store, err := credential.NewFileStore(filepath.Join(dir, "credentials"))
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), credential.New("access", "refresh", &credential.User{ID: "u1", Username: "ada"})))
	return dir, store
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func verifyHandler(w http.ResponseWriter) {
	writeJSON(w, map[string]any{"user": map[string]any{"_id": "u1", "username": "ada"}})
}

func TestCommandsRequireSession(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	for _, args := range [][]string{
		{"moltys", "list"},
		{"messages", "threads"},
		{"call", "query", "moltys:list"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, err := executeRoot(t, handler, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
		})
	}
	assert.Zero(t, calls, "nothing should reach the API without a stored session")
}

func TestConfigShowJSON(t *testing.T) {
	out, err := executeRoot(t, http.NotFoundHandler(), "config", "show", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"Backend": "memory"`)
}

func TestLoginAndRegister_AlreadySignedIn(t *testing.T) {
	for _, args := range [][]string{
		{"auth", "login", "--username", "ada"},
		{"auth", "register", "--username", "ada", "--email", "ada@example.com"},
	} {
		t.Run(args[1], func(t *testing.T) {
			dir, store := signedInConfig(t)

			var signInCalls atomic.Int32
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/users/verify":
					verifyHandler(w)
				default:
					signInCalls.Add(1)
					w.WriteHeader(http.StatusTeapot)
				}
			})

			out, err := executeRootIn(t, dir, "file", handler, args...)
			require.NoError(t, err)
			assert.Contains(t, out, "Already signed in as ada")
			assert.Zero(t, signInCalls.Load())

			cred, err := store.Get(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, cred, "the existing session is kept")
		})
	}
}

func TestMoltysWait_StopsWhenSignedOutElsewhere(t *testing.T) {
	dir, store := signedInConfig(t)

	var polls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/verify":
			verifyHandler(w)
		case "/api/query":
			if polls.Add(1) == 1 {
				// Another terminal runs "moltyverse auth logout".
				_ = store.Clear(context.Background())
			}
			writeJSON(w, map[string]any{
				"status": "success",
				"value":  map[string]any{"_id": "d1", "platform": "discord", "status": "pending"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := executeRootIn(t, dir, "file", handler, "moltys", "wait", "d1", "--interval", "20ms")
	require.Error(t, err)
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
	assert.GreaterOrEqual(t, polls.Load(), int32(1))
}
