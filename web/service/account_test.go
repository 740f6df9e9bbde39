package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/offerly/storefront/web/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func newAPI(t *testing.T, handler http.HandlerFunc) *AccountService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAccountService(srv.URL)
}

func TestLogin(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, now.Add(2*time.Hour))

	svc := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		var creds Credentials
		require.NoError(t, json.Unmarshal(body, &creds))
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"` + token + `","user":{"role":"admin","is_super_admin":true,"is_verify":true}}`))
	})
	svc.now = func() time.Time { return now }

	login, err := svc.Login(context.Background(), Credentials{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, token, login.Token)
	assert.Equal(t, gate.Identity{Role: gate.RoleAdmin, IsSuperAdmin: true}, login.Identity)
	assert.Equal(t, 2*time.Hour, login.MaxAge)

	_, err = svc.Login(context.Background(), Credentials{Email: "a@b.c", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), Credentials{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsBadUpstreamPayloads(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, ``},
		{"not json", http.StatusOK, `<html>`},
		{"no token", http.StatusOK, `{"user":{"role":"user"}}`},
		{"unknown role", http.StatusOK, `{"token":"x","user":{"role":"root"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := svc.Login(context.Background(), Credentials{Email: "a", Password: "b"})
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestTokenLifetimeWithoutExpiry(t *testing.T) {
	svc := NewAccountService("http://unused")
	assert.Zero(t, svc.tokenLifetime("opaque-token"))
	assert.Zero(t, svc.tokenLifetime(signedToken(t, time.Now().Add(-time.Hour))))
}

func TestUnreadNotifications(t *testing.T) {
	svc := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"count":4}`))
	})

	n, err := svc.UnreadNotifications(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = svc.UnreadNotifications(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.UnreadNotifications(context.Background(), "other")
	assert.ErrorIs(t, err, ErrUpstream)
}
