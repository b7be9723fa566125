package consumer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"moltyverse/internal/backend"
	"moltyverse/internal/credential"
	"moltyverse/internal/gateway"
	"moltyverse/internal/navigation"
)

type functionCall struct {
	Kind string
	Path string
	Args map[string]any
}

// fakeFunctions answers backend function calls by path.
type fakeFunctions struct {
	mu       sync.Mutex
	calls    []functionCall
	handlers map[string]func(args map[string]any) (any, string)
}

func (f *fakeFunctions) recorded() []functionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]functionCall(nil), f.calls...)
}

func newFakeBackend(t *testing.T, handlers map[string]func(args map[string]any) (any, string)) (*backend.Client, *fakeFunctions) {
	t.Helper()
	f := &fakeFunctions{handlers: handlers}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string         `json:"path"`
			Args map[string]any `json:"args"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.calls = append(f.calls, functionCall{Kind: r.URL.Path, Path: req.Path, Args: req.Args})
		h := f.handlers[req.Path]
		f.mu.Unlock()

		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no such function"}`))
			return
		}
		value, errMsg := h(req.Args)
		if errMsg != "" {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "errorMessage": errMsg})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "value": value})
	}))
	t.Cleanup(srv.Close)

	store := credential.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), credential.New("a", "r", &credential.User{ID: "me"})))
	loc, err := navigation.NewLocation("https://app.example.com/dashboard")
	require.NoError(t, err)

	gw, err := gateway.New(gateway.Config{BaseURL: srv.URL, Store: store, Navigator: loc})
	require.NoError(t, err)
	return backend.New(gw), f
}
