package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{"STOREFRONT_PORT", "STOREFRONT_API_URL", "STOREFRONT_LOGIN_ATTEMPTS", "STOREFRONT_LOG_LEVEL", "STOREFRONT_DEBUG"} {
		t.Setenv(key, "")
	}
	assert.Equal(t, 3000, GetPort())
	assert.Equal(t, "http://localhost:8080/api", GetAPIURL())
	assert.Equal(t, "user", GetIdentityCookie())
	assert.Equal(t, "token", GetTokenCookie())
	assert.Equal(t, 10, GetLoginAttempts())
	assert.Equal(t, Info, GetLogLevel())
	assert.NotEmpty(t, GetVersion())
	assert.Equal(t, "storefront", GetName())
}

func TestOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_PORT", "8443")
	t.Setenv("STOREFRONT_API_URL", "https://api.example/v1/")
	t.Setenv("STOREFRONT_COOKIE_SECURE", "true")
	t.Setenv("STOREFRONT_LOGIN_ATTEMPTS", "nope")

	assert.Equal(t, 8443, GetPort())
	assert.Equal(t, "https://api.example/v1", GetAPIURL())
	assert.True(t, IsCookieSecure())
	assert.Equal(t, 10, GetLoginAttempts())
}

func TestCORSOrigins(t *testing.T) {
	t.Setenv("STOREFRONT_CORS_ORIGINS", "")
	assert.Empty(t, GetCORSOrigins())
	t.Setenv("STOREFRONT_CORS_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, GetCORSOrigins())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("STOREFRONT_HEARTBEAT=@every 5s\n"), 0o600))
	t.Setenv("STOREFRONT_HEARTBEAT", "")
	require.NoError(t, os.Unsetenv("STOREFRONT_HEARTBEAT"))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
	require.NoError(t, LoadEnv(file))
	assert.Equal(t, "@every 5s", GetHeartbeatSpec())
}
