package supabase

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/esgtracker/internal/config"
)

func TestExtractProjectRef(t *testing.T) {
	assert.Equal(t, "akrqbuajqkirdekonpzy", extractProjectRef("https://akrqbuajqkirdekonpzy.supabase.co"))
	assert.Equal(t, "abc", extractProjectRef("abc.supabase.co"))
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(config.SupabaseConfig{URL: "https://x.supabase.co"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(config.SupabaseConfig{URL: server.URL, AnonKey: "anon"})
	require.NoError(t, err)
	return c
}

func TestSignIn(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600,"refresh_token":"r"}`))
	})

	session, err := c.SignIn("a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", session.AccessToken)
	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, 3600, session.ExpiresIn)
}

func TestSignInRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := c.SignIn("a@b.c", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.SignOut("tok"))
}

func TestSignUp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apiKey"))
		_, _ = w.Write([]byte(`{"id":"7f1b8f3a-2d7c-4c58-9b7e-0a3c5b1f2e11","email":"a@b.c"}`))
	})

	user, err := c.SignUp("a@b.c", "pw", map[string]interface{}{"full_name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "7f1b8f3a-2d7c-4c58-9b7e-0a3c5b1f2e11", user.ID)
	assert.Equal(t, "a@b.c", user.Email)
}
