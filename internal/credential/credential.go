package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Fixed storage keys. A credential is only considered present when all three exist.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// Keys lists the storage keys in write order. The user record goes last so
// that an interrupted write never leaves a cached user without tokens.
var Keys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

var (
	// ErrIncomplete is returned when a credential is missing one of its three parts.
	ErrIncomplete = errors.New("credential is incomplete")

	// ErrInconsistent is returned when the access token belongs to a different user
	// than the cached user record.
	ErrInconsistent = errors.New("access token subject does not match cached user")
)

// Store persists the client's credential.
//
// Get returns (nil, nil) when no complete credential is stored.
// Set writes all three parts or none. Clear removes all three parts.
type Store interface {
	Get(ctx context.Context) (*Credential, error)
	Set(ctx context.Context, c *Credential) error
	Clear(ctx context.Context) error
}

// User is the identity record owned by the backend. The client only keeps a
// read-only cached copy.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Bio         string `json:"bio,omitempty"`
	IsAgent     bool   `json:"isAgent"`
}

// UnmarshalJSON accepts both "id" and the backend's document-style "_id".
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		DocumentID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.DocumentID
	}
	return nil
}

// Name returns the display name if set, otherwise the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Credential is the bearer material held by the client plus the cached user.
type Credential struct {
	Token *oauth2.Token
	User  *User
}

// New builds a credential from an access/refresh token pair and the owning user.
func New(accessToken, refreshToken string, user *User) *Credential {
	return &Credential{
		Token: &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
		},
		User: user,
	}
}

// AccessToken returns the access token or "" when absent.
func (c *Credential) AccessToken() string {
	if c == nil || c.Token == nil {
		return ""
	}
	return c.Token.AccessToken
}

// RefreshToken returns the refresh token or "" when absent.
func (c *Credential) RefreshToken() string {
	if c == nil || c.Token == nil {
		return ""
	}
	return c.Token.RefreshToken
}

// Complete reports whether all three parts are present.
func (c *Credential) Complete() bool {
	return c.AccessToken() != "" && c.RefreshToken() != "" && c.User != nil && c.User.ID != ""
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := &Credential{}
	if c.Token != nil {
		tok := *c.Token
		out.Token = &tok
	}
	if c.User != nil {
		u := *c.User
		out.User = &u
	}
	return out
}

// Validate checks that the credential is complete and, when the access token
// is a JWT carrying a subject, that the subject is the cached user.
// Opaque tokens are accepted as-is.
func Validate(c *Credential) error {
	if !c.Complete() {
		return ErrIncomplete
	}

	token := c.AccessToken()
	if strings.Count(token, ".") != 2 {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil
	}
	if sub != c.User.ID {
		return fmt.Errorf("%w: token subject %q, user %q", ErrInconsistent, sub, c.User.ID)
	}
	return nil
}

// encode turns a credential into its three storage values.
func encode(c *Credential) (map[string][]byte, error) {
	userJSON, err := json.Marshal(c.User)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	return map[string][]byte{
		KeyAccessToken:  []byte(c.AccessToken()),
		KeyRefreshToken: []byte(c.RefreshToken()),
		KeyUser:         userJSON,
	}, nil
}

// decode rebuilds a credential from stored values. Any missing or unreadable
// part yields nil: partial state is treated as absent. So do tokens whose
// subject is not the stored user, as left by an interrupted replacement.
func decode(values map[string][]byte) *Credential {
	access := values[KeyAccessToken]
	refresh := values[KeyRefreshToken]
	rawUser := values[KeyUser]
	if len(access) == 0 || len(refresh) == 0 || len(rawUser) == 0 {
		return nil
	}

	var user User
	if err := json.Unmarshal(rawUser, &user); err != nil || user.ID == "" {
		return nil
	}

	c := New(string(access), string(refresh), &user)
	if err := Validate(c); err != nil {
		return nil
	}
	return c
}
