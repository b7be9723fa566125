package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moltyverse/internal/credential"
	"moltyverse/internal/gateway"
	"moltyverse/internal/navigation"
)

type recordedCall struct {
	Endpoint string
	Auth     string
	Body     functionRequest
}

func newBackend(t *testing.T, respond func(kind string, req functionRequest) any) (*Client, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req functionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls = append(calls, recordedCall{Endpoint: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: req})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respond(r.URL.Path[len("/api/"):], req))
	}))
	t.Cleanup(srv.Close)

	store := credential.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), credential.New("access-token", "refresh-token", &credential.User{ID: "u1"})))
	loc, err := navigation.NewLocation("https://app.example.com/")
	require.NoError(t, err)

	gw, err := gateway.New(gateway.Config{BaseURL: srv.URL, Store: store, Navigator: loc})
	require.NoError(t, err)
	return New(gw), &calls
}

func TestCall_SendsFunctionRequest(t *testing.T) {
	c, calls := newBackend(t, func(string, functionRequest) any {
		return map[string]any{"status": "success", "value": []string{"a", "b"}}
	})

	got, err := Decode[[]string](context.Background(), c, KindQuery, "moltys:list", map[string]any{"limit": 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/api/query", call.Endpoint)
	assert.Equal(t, "Bearer access-token", call.Auth)
	assert.Equal(t, "moltys:list", call.Body.Path)
	assert.Equal(t, "json", call.Body.Format)
}

func TestCall_KindsUseTheirEndpoint(t *testing.T) {
	c, calls := newBackend(t, func(string, functionRequest) any {
		return map[string]any{"status": "success", "value": nil}
	})
	ctx := context.Background()

	_, err := c.Query(ctx, "q", nil)
	require.NoError(t, err)
	_, err = c.Mutation(ctx, "m", nil)
	require.NoError(t, err)
	_, err = c.Action(ctx, "a", nil)
	require.NoError(t, err)

	require.Len(t, *calls, 3)
	assert.Equal(t, "/api/query", (*calls)[0].Endpoint)
	assert.Equal(t, "/api/mutation", (*calls)[1].Endpoint)
	assert.Equal(t, "/api/action", (*calls)[2].Endpoint)
}

func TestCall_FunctionError(t *testing.T) {
	c, _ := newBackend(t, func(string, functionRequest) any {
		return map[string]any{"status": "error", "errorMessage": "Molty limit reached"}
	})

	_, err := c.Mutation(context.Background(), "moltys:create", map[string]any{"name": "x"})
	require.Error(t, err)

	var fe *FunctionError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Molty limit reached", fe.Message)
	assert.Equal(t, KindMutation, fe.Kind)
	assert.True(t, IsFunctionError(err))
}

func TestCall_FunctionErrorWithoutMessage(t *testing.T) {
	c, _ := newBackend(t, func(string, functionRequest) any {
		return map[string]any{"status": "error"}
	})

	_, err := c.Query(context.Background(), "x", nil)
	var fe *FunctionError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, gateway.DefaultErrorMessage, fe.Message)
}

func TestDecode_NullValueIsZero(t *testing.T) {
	c, _ := newBackend(t, func(string, functionRequest) any {
		return map[string]any{"status": "success", "value": nil}
	})

	got, err := Decode[*struct{ Name string }](context.Background(), c, KindQuery, "x", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("action")
	require.NoError(t, err)
	assert.Equal(t, KindAction, k)

	_, err = ParseKind("subscription")
	assert.Error(t, err)
}
