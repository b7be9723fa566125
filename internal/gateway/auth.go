package gateway

import (
	"context"
	"net/http"

	"moltyverse/internal/credential"
	"moltyverse/pkg/logging"
)

// Auth backend endpoints.
const (
	LoginEndpoint    = "/auth/login"
	RegisterEndpoint = "/auth/register"
	RefreshEndpoint  = "/auth/refresh"
	VerifyEndpoint   = "/users/verify"
	ExchangeEndpoint = "/auth/oauth/exchange"
)

// AuthResponse is returned by login, registration and refresh.
type AuthResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	User         *credential.User `json:"user"`
}

// Credential converts the response into a storable credential.
func (r *AuthResponse) Credential() *credential.Credential {
	return credential.New(r.AccessToken, r.RefreshToken, r.User)
}

func (r *AuthResponse) userID() string {
	if r == nil || r.User == nil {
		return ""
	}
	return r.User.ID
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type exchangeRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	User *credential.User `json:"user"`
}

// Login exchanges a username and password for tokens. It does not touch the store.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	return Do[*AuthResponse](ctx, c, LoginEndpoint, Options{
		Method: http.MethodPost,
		Body:   loginRequest{Username: username, Password: password},
		Public: true,
	})
}

// Register creates an account and returns its first tokens. It does not touch the store.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	return Do[*AuthResponse](ctx, c, RegisterEndpoint, Options{
		Method: http.MethodPost,
		Body:   registerRequest{Username: username, Email: email, Password: password},
		Public: true,
	})
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	return Do[*AuthResponse](ctx, c, RefreshEndpoint, Options{
		Method: http.MethodPost,
		Body:   refreshRequest{RefreshToken: refreshToken},
		Public: true,
	})
}

// Verify asks the backend who the stored credential belongs to.
func (c *Client) Verify(ctx context.Context) (*credential.User, error) {
	resp, err := Do[verifyResponse](ctx, c, VerifyEndpoint, Options{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, &RequestError{Status: http.StatusOK, Message: "Verify response has no user"}
	}
	return resp.User, nil
}

// ExchangeOneTimeToken trades an OAuth one-time token for a persistent session.
// The backend sets a session cookie; when it also returns tokens they are stored.
func (c *Client) ExchangeOneTimeToken(ctx context.Context, token string) error {
	resp, err := Do[*AuthResponse](ctx, c, ExchangeEndpoint, Options{
		Method: http.MethodPost,
		Body:   exchangeRequest{Token: token},
		Public: true,
	})
	if err != nil {
		return err
	}

	if resp != nil && resp.Credential().Complete() {
		if err := c.store.Set(ctx, resp.Credential()); err != nil {
			return err
		}
		logging.Debug("Gateway", "Stored credential from one-time token exchange")
	}
	return nil
}
