// Package backend calls functions on the hosted reactive data backend.
//
// Queries, mutations and actions all go through the gateway so they carry
// the bearer token and benefit from the refresh-and-retry flow.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"moltyverse/internal/gateway"
	"moltyverse/pkg/logging"
)

// Kind is the function kind, which is also the endpoint name.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
	KindAction   Kind = "action"
)

// ParseKind validates a kind name.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(name); k {
	case KindQuery, KindMutation, KindAction:
		return k, nil
	default:
		return "", fmt.Errorf("unknown function kind %q", name)
	}
}

// Requester sends a request through the gateway.
type Requester interface {
	Request(ctx context.Context, endpoint string, opts gateway.Options) ([]byte, error)
}

// FunctionError is returned when the backend ran the function and it failed.
type FunctionError struct {
	Kind    Kind
	Path    string
	Message string
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("%s %s failed: %s", e.Kind, e.Path, e.Message)
}

// IsFunctionError reports whether err is or wraps a *FunctionError.
func IsFunctionError(err error) bool {
	var fe *FunctionError
	return errors.As(err, &fe)
}

type functionRequest struct {
	Path   string `json:"path"`
	Args   any    `json:"args"`
	Format string `json:"format"`
}

type functionResponse struct {
	Status       string          `json:"status"`
	Value        json.RawMessage `json:"value"`
	ErrorMessage string          `json:"errorMessage"`
}

// Client calls backend functions.
type Client struct {
	requester Requester
}

// New creates a backend client on top of the gateway.
func New(r Requester) *Client {
	return &Client{requester: r}
}

// Call runs a function and returns its raw JSON value.
func (c *Client) Call(ctx context.Context, kind Kind, path string, args any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}

	body, err := c.requester.Request(ctx, "/api/"+string(kind), gateway.Options{
		Method: http.MethodPost,
		Body:   functionRequest{Path: path, Args: args, Format: "json"},
	})
	if err != nil {
		return nil, err
	}

	var resp functionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &gateway.RequestError{Status: http.StatusOK, Message: "Invalid response from server", Err: err}
	}

	switch resp.Status {
	case "success":
		return resp.Value, nil
	case "error":
		msg := resp.ErrorMessage
		if msg == "" {
			msg = gateway.DefaultErrorMessage
		}
		logging.Debug("Backend", "%s %s returned error: %s", kind, path, msg)
		return nil, &FunctionError{Kind: kind, Path: path, Message: msg}
	default:
		return nil, &gateway.RequestError{Status: http.StatusOK, Message: fmt.Sprintf("Unexpected function status %q", resp.Status)}
	}
}

// Query runs a read-only function.
func (c *Client) Query(ctx context.Context, path string, args any) (json.RawMessage, error) {
	return c.Call(ctx, KindQuery, path, args)
}

// Mutation runs a transactional write.
func (c *Client) Mutation(ctx context.Context, path string, args any) (json.RawMessage, error) {
	return c.Call(ctx, KindMutation, path, args)
}

// Action runs a function that may have external side effects.
func (c *Client) Action(ctx context.Context, path string, args any) (json.RawMessage, error) {
	return c.Call(ctx, KindAction, path, args)
}

// Decode runs a function and decodes its value into T. A null value yields
// the zero T.
func Decode[T any](ctx context.Context, c *Client, kind Kind, path string, args any) (T, error) {
	var out T
	raw, err := c.Call(ctx, kind, path, args)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s %s result: %w", kind, path, err)
	}
	return out, nil
}
