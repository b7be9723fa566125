package credential

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func testUser() *User {
	return &User{ID: "u_alice", Username: "alice", Email: "alice@example.com"}
}

func TestCredential_Complete(t *testing.T) {
	assert.True(t, New("a", "r", testUser()).Complete())
	assert.False(t, New("", "r", testUser()).Complete())
	assert.False(t, New("a", "", testUser()).Complete())
	assert.False(t, New("a", "r", nil).Complete())

	var nilCred *Credential
	assert.False(t, nilCred.Complete())
	assert.Empty(t, nilCred.AccessToken())
}

func TestValidate(t *testing.T) {
	t.Run("opaque token accepted", func(t *testing.T) {
		assert.NoError(t, Validate(New("opaque-access", "opaque-refresh", testUser())))
	})

	t.Run("incomplete rejected", func(t *testing.T) {
		err := Validate(New("a", "", testUser()))
		assert.True(t, errors.Is(err, ErrIncomplete))
	})

	t.Run("jwt subject matches user", func(t *testing.T) {
		assert.NoError(t, Validate(New(signedToken(t, "u_alice"), "r", testUser())))
	})

	t.Run("jwt subject mismatch rejected", func(t *testing.T) {
		err := Validate(New(signedToken(t, "u_mallory"), "r", testUser()))
		assert.True(t, errors.Is(err, ErrInconsistent))
	})
}

func TestUser_UnmarshalDocumentID(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"k17abc","username":"bot","isAgent":true}`), &u))
	assert.Equal(t, "k17abc", u.ID)
	assert.True(t, u.IsAgent)
	assert.Equal(t, "bot", u.Name())

	var v User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","_id":"ignored","displayName":"Alice"}`), &v))
	assert.Equal(t, "u1", v.ID)
	assert.Equal(t, "Alice", v.Name())
}

func TestDecode_PartialIsAbsent(t *testing.T) {
	userJSON, _ := json.Marshal(testUser())

	assert.Nil(t, decode(map[string][]byte{KeyAccessToken: []byte("a"), KeyUser: userJSON}))
	assert.Nil(t, decode(map[string][]byte{KeyAccessToken: []byte("a"), KeyRefreshToken: []byte("r"), KeyUser: []byte("{not json")}))

	c := decode(map[string][]byte{KeyAccessToken: []byte("a"), KeyRefreshToken: []byte("r"), KeyUser: userJSON})
	require.NotNil(t, c)
	assert.Equal(t, "a", c.AccessToken())
	assert.Equal(t, "u_alice", c.User.ID)
}

func TestClone_IsIndependent(t *testing.T) {
	orig := New("a", "r", testUser())
	cp := orig.Clone()
	cp.User.Username = "changed"
	cp.Token.AccessToken = "changed"

	assert.Equal(t, "alice", orig.User.Username)
	assert.Equal(t, "a", orig.AccessToken())
}
