// Package service holds the storefront's collaborators of the remote platform API.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/offerly/storefront/web/gate"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUpstream           = errors.New("platform API unavailable")
)

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login is a successful sign-in: the API token and the identity to persist.
type Login struct {
	Token    string        `json:"token"`
	Identity gate.Identity `json:"user"`
	// MaxAge is derived from the token's exp claim; zero when it has none.
	MaxAge time.Duration `json:"-"`
}

// AccountService signs visitors in against the platform API.
type AccountService struct {
	BaseURL string
	Client  *http.Client
	now     func() time.Time
}

// NewAccountService creates a service for the API rooted at baseURL.
func NewAccountService(baseURL string) *AccountService {
	return &AccountService{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

// Login exchanges credentials for a token and identity record.
func (s *AccountService) Login(ctx context.Context, creds Credentials) (*Login, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, ErrInvalidCredentials
	}
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return nil, ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	var login Login
	if err := json.Unmarshal(data, &login); err != nil {
		return nil, fmt.Errorf("%w: decode login: %v", ErrUpstream, err)
	}
	if login.Token == "" {
		return nil, fmt.Errorf("%w: login response without token", ErrUpstream)
	}
	// The identity goes through the same schema the gates decode with.
	raw, err := gate.EncodeIdentity(login.Identity)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid identity: %v", ErrUpstream, err)
	}
	id, err := gate.DecodeIdentity(raw, true)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid identity: %v", ErrUpstream, err)
	}
	login.Identity = *id
	login.MaxAge = s.tokenLifetime(login.Token)
	return &login, nil
}

// tokenLifetime reads exp without verifying the signature; the API verifies
// the token on every call, the storefront only needs the cookie lifetime.
func (s *AccountService) tokenLifetime(token string) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	lifetime := exp.Sub(s.now())
	if lifetime < 0 {
		return 0
	}
	return lifetime
}

// UnreadNotifications returns the viewer's unread notification count.
func (s *AccountService) UnreadNotifications(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/notifications/unread-count", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return out.Count, nil
}
