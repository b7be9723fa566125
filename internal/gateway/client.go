package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"moltyverse/internal/credential"
	"moltyverse/internal/navigation"
	"moltyverse/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// DefaultLoginPath is where hard auth failures navigate to.
const DefaultLoginPath = "/login"

// maxAuthRetries bounds the refresh-and-retry loop.
const maxAuthRetries = 1

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Options customises a single request.
type Options struct {
	// Method defaults to GET, or POST when Body is set.
	Method string

	// Body is encoded as JSON when non-nil.
	Body any

	// Headers are merged over the computed ones. An empty value removes the
	// header, which lets a caller drop Authorization explicitly.
	Headers map[string]string

	// Public requests are sent without credentials and never trigger a refresh.
	Public bool
}

// Config configures the gateway client.
type Config struct {
	// BaseURL is prefixed to relative endpoints.
	BaseURL string

	// Store is read for the bearer token and updated on refresh.
	Store credential.Store

	// Navigator receives the hard navigation to the login page.
	Navigator navigation.Navigator

	// LoginPath defaults to DefaultLoginPath.
	LoginPath string

	// HTTPClient is optional. The default has a cookie jar so session cookies
	// set by the OAuth exchange are kept.
	HTTPClient *http.Client
}

// Client is the only component that reads the credential store to authorize
// outgoing calls.
type Client struct {
	baseURL    string
	store      credential.Store
	nav        navigation.Navigator
	loginPath  string
	httpClient *http.Client

	// refreshGroup collapses concurrent refreshes into one.
	refreshGroup singleflight.Group
}

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("credential store is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout, Jar: jar}
	}

	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		store:      cfg.Store,
		nav:        cfg.Navigator,
		loginPath:  loginPath,
		httpClient: httpClient,
	}, nil
}

// Do performs a request and decodes the JSON response into T.
// An empty response body yields the zero value.
func Do[T any](ctx context.Context, c *Client, endpoint string, opts Options) (T, error) {
	var out T

	body, err := c.Request(ctx, endpoint, opts)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &RequestError{Status: http.StatusOK, Message: "Invalid response from server", Err: err}
	}
	return out, nil
}

// Request performs a request and returns the raw 2xx body.
//
// A 401 triggers exactly one refresh followed by exactly one retry. A second
// 401 is surfaced and ends the session.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		res := c.attempt(ctx, endpoint, opts)

		switch res.Kind {
		case ResultOK:
			return res.Body, nil
		case ResultFailure:
			return nil, res.Err
		}

		// ResultAuthExpired
		if opts.Public {
			return nil, res.Err
		}
		if attempt >= maxAuthRetries {
			logging.Warn("Gateway", "Request to %s still unauthorized after refresh", endpoint)
			c.expire(ctx, "unauthorized after refresh")
			return nil, res.Err
		}
		if err := c.refresh(ctx, res.Token); err != nil {
			return nil, err
		}
	}
}

// attempt sends one request and classifies the response.
func (c *Client) attempt(ctx context.Context, endpoint string, opts Options) Result {
	var cred *credential.Credential
	if !opts.Public {
		var err error
		cred, err = c.store.Get(ctx)
		if err != nil {
			return Result{Kind: ResultFailure, Err: fmt.Errorf("failed to read credential: %w", err)}
		}
	}

	req, err := c.newRequest(ctx, endpoint, opts, cred)
	if err != nil {
		return Result{Kind: ResultFailure, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{
			Kind:  ResultFailure,
			Err:   &RequestError{Message: "Network request failed", Err: err},
			Token: cred.AccessToken(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{
			Kind:   ResultFailure,
			Status: resp.StatusCode,
			Err:    &RequestError{Status: resp.StatusCode, Message: "Failed to read response", Err: err},
			Token:  cred.AccessToken(),
		}
	}

	logging.Debug("Gateway", "%s %s -> %d (request_id=%s)", req.Method, endpoint, resp.StatusCode, req.Header.Get(RequestIDHeader))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Result{Kind: ResultOK, Status: resp.StatusCode, Body: body, Token: cred.AccessToken()}
	case resp.StatusCode == http.StatusUnauthorized:
		return Result{
			Kind:   ResultAuthExpired,
			Status: resp.StatusCode,
			Err:    &RequestError{Status: resp.StatusCode, Message: errorMessage(body), Err: ErrAuthExpired},
			Token:  cred.AccessToken(),
		}
	default:
		return Result{
			Kind:   ResultFailure,
			Status: resp.StatusCode,
			Err:    &RequestError{Status: resp.StatusCode, Message: errorMessage(body)},
			Token:  cred.AccessToken(),
		}
	}
}

// newRequest builds the HTTP request. Authorization goes on first, caller
// headers are merged last.
func (c *Client) newRequest(ctx context.Context, endpoint string, opts Options, cred *credential.Credential) (*http.Request, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
		if opts.Body != nil {
			method = http.MethodPost
		}
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if cred != nil && cred.Token != nil && cred.Token.AccessToken != "" {
		cred.Token.SetAuthHeader(req)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	for name, value := range opts.Headers {
		if value == "" {
			req.Header.Del(name)
			continue
		}
		req.Header.Set(name, value)
	}

	return req, nil
}

func (c *Client) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

// refresh exchanges the stored refresh token for a new credential. failedToken
// is the access token the 401 was received with; if the store already holds
// a different one, another caller refreshed in the meantime and the retry can
// go ahead directly.
func (c *Client) refresh(ctx context.Context, failedToken string) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		cred, err := c.store.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read credential: %w", err)
		}
		if cred != nil && failedToken != "" && cred.AccessToken() != failedToken {
			return nil, nil
		}

		refreshToken := cred.RefreshToken()
		if refreshToken == "" {
			c.expire(ctx, "no refresh token")
			return nil, &RequestError{Status: http.StatusUnauthorized, Message: "Session expired", Err: ErrAuthExpired}
		}

		resp, err := c.Refresh(ctx, refreshToken)
		if err != nil {
			logging.Audit(logging.AuditEvent{Action: "token_refresh", Outcome: "failure", Target: c.baseURL, Reason: err.Error()})
			c.expire(ctx, "refresh rejected")
			return nil, &RequestError{Status: http.StatusUnauthorized, Message: "Session expired", Err: errors.Join(ErrAuthExpired, err)}
		}

		if err := c.store.Set(ctx, resp.Credential()); err != nil {
			logging.Error("Gateway", err, "Failed to store refreshed credential")
			c.expire(ctx, "refreshed credential rejected")
			return nil, &RequestError{Status: http.StatusUnauthorized, Message: "Session expired", Err: errors.Join(ErrAuthExpired, err)}
		}

		logging.Audit(logging.AuditEvent{Action: "token_refresh", Outcome: "success", UserID: resp.userID(), Target: c.baseURL})
		return nil, nil
	})
	return err
}

// expire clears the credential and hard-navigates to the login page.
func (c *Client) expire(ctx context.Context, reason string) {
	if err := c.store.Clear(ctx); err != nil {
		logging.Error("Gateway", err, "Failed to clear credential")
	}
	logging.Audit(logging.AuditEvent{Action: "credential_clear", Outcome: "success", Target: c.baseURL, Reason: reason})
	if c.nav != nil {
		c.nav.Assign(c.loginPath)
	}
}
