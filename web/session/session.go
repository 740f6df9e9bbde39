// Package session reads and writes the identity and token cookies shared by the
// storefront gates, the client shell and the real-time channel.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/config"
	"github.com/offerly/storefront/web/gate"
)

// DefaultMaxAge applies when the API token carries no usable expiry.
const DefaultMaxAge = 7 * 24 * time.Hour

// GetIdentity decodes the identity cookie of the request. The error is
// gate.ErrMissingIdentity or gate.ErrMalformedIdentity when the visitor is anonymous.
func GetIdentity(c *gin.Context) (*gate.Identity, error) {
	value, ok := rawCookie(c.Request, config.GetIdentityCookie())
	return gate.DecodeIdentity(value, ok)
}

// rawCookie returns the value of the named cookie exactly as sent. Unlike
// http.Request.Cookie it keeps values holding quotes, commas or spaces, which
// browser code writes when it stores plain JSON.
func rawCookie(r *http.Request, name string) (string, bool) {
	prefix := name + "="
	for _, header := range r.Header.Values("Cookie") {
		for _, part := range strings.Split(header, ";") {
			part = strings.TrimSpace(part)
			if value, ok := strings.CutPrefix(part, prefix); ok {
				return value, true
			}
		}
	}
	return "", false
}

// GetToken returns the API token cookie, or "" when absent.
func GetToken(c *gin.Context) string {
	cookie, err := c.Request.Cookie(config.GetTokenCookie())
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetLogin writes the token and identity cookies on the same response so the
// next gate evaluation sees both or neither.
func SetLogin(c *gin.Context, token string, id gate.Identity, maxAge time.Duration) error {
	value, err := gate.EncodeIdentity(id)
	if err != nil {
		return err
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	seconds := int(maxAge / time.Second)
	secure := config.IsCookieSecure()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(config.GetTokenCookie(), token, seconds, "/", "", secure, true)
	// The client shell reads the identity cookie, so it stays visible to scripts.
	c.SetCookie(config.GetIdentityCookie(), value, seconds, "/", "", secure, false)
	return nil
}

// ClearLogin expires both cookies on the same response.
func ClearLogin(c *gin.Context) {
	secure := config.IsCookieSecure()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(config.GetTokenCookie(), "", -1, "/", "", secure, true)
	c.SetCookie(config.GetIdentityCookie(), "", -1, "/", "", secure, false)
}
