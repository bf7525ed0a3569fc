package supabase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/illegalcall/esgtracker/internal/config"
)

var (
	ErrNotConfigured      = errors.New("supabase auth is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is the subset of the Supabase auth user the API needs.
type User struct {
	ID    string
	Email string
}

type Session struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
}

// AuthClient signs users up, in and out against Supabase Auth.
type AuthClient interface {
	SignUp(email, password string, metadata map[string]interface{}) (*User, error)
	SignIn(email, password string) (*Session, error)
	SignOut(accessToken string) error
}

type Client struct {
	client gotrue.Client
}

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	parts := strings.Split(url, ".")
	return parts[0]
}

// NewClient builds the auth client. Hosted projects are addressed by their
// project reference; any other URL (self-hosted, local) is used directly as
// the GoTrue base URL.
func NewClient(cfg config.SupabaseConfig) (*Client, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, ErrNotConfigured
	}

	projectRef := extractProjectRef(cfg.URL)
	client := gotrue.New(projectRef, cfg.AnonKey)
	if !strings.Contains(cfg.URL, ".supabase.co") {
		client = client.WithCustomGoTrueURL(strings.TrimRight(cfg.URL, "/") + "/auth/v1")
	}

	slog.Info("Initializing Supabase auth client", "project_ref", projectRef)
	return &Client{client: client}, nil
}

func (c *Client) SignUp(email, password string, metadata map[string]interface{}) (*User, error) {
	resp, err := c.client.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("sign up failed: %w", err)
	}
	return &User{ID: resp.User.ID.String(), Email: resp.User.Email}, nil
}

func (c *Client) SignIn(email, password string) (*Session, error) {
	res, err := c.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if res == nil || res.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}
	return &Session{AccessToken: res.AccessToken, TokenType: res.TokenType, ExpiresIn: res.ExpiresIn}, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(accessToken string) error {
	if err := c.client.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	return nil
}
