package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// LoadEnv reads a .env file into the process environment. A missing file is fine.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("STOREFRONT_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("STOREFRONT_DEBUG") == "true"
}

// GetLogFolder is empty when file logging is disabled.
func GetLogFolder() string {
	return os.Getenv("STOREFRONT_LOG_FOLDER")
}

func GetListen() string {
	return getenv("STOREFRONT_LISTEN", "")
}

func GetPort() int {
	return getInt("STOREFRONT_PORT", 3000)
}

// GetAPIURL is the base URL of the platform REST API.
func GetAPIURL() string {
	return strings.TrimRight(getenv("STOREFRONT_API_URL", "http://localhost:8080/api"), "/")
}

func GetIdentityCookie() string {
	return getenv("STOREFRONT_IDENTITY_COOKIE", "user")
}

func GetTokenCookie() string {
	return getenv("STOREFRONT_TOKEN_COOKIE", "token")
}

func IsCookieSecure() bool {
	return getBool("STOREFRONT_COOKIE_SECURE", false)
}

// GetLoginAttempts is the number of login attempts allowed per client per minute.
func GetLoginAttempts() int {
	return getInt("STOREFRONT_LOGIN_ATTEMPTS", 10)
}

func GetHeartbeatSpec() string {
	return getenv("STOREFRONT_HEARTBEAT", "@every 30s")
}

// GetCertFile and GetKeyFile enable HTTPS when both are set.
func GetCertFile() string {
	return os.Getenv("STOREFRONT_CERT_FILE")
}

func GetKeyFile() string {
	return os.Getenv("STOREFRONT_KEY_FILE")
}

// GetCORSOrigins lists the origins allowed to call the JSON endpoints with
// credentials, from a comma separated STOREFRONT_CORS_ORIGINS.
func GetCORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(os.Getenv("STOREFRONT_CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
