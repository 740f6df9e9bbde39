// Package controller provides the HTTP handlers of the storefront server:
// sign-in and sign-out, page rendering, shell navigation, the real-time channel
// and the admin API.
package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/web/gate"
	"github.com/offerly/storefront/web/locale"
	"github.com/offerly/storefront/web/middleware"
)

// BaseController provides the request helpers shared by all controllers.
type BaseController struct {
	table *gate.Table
}

// identity returns the visitor decoded from the identity cookie, nil when anonymous.
func (a *BaseController) identity(c *gin.Context) *gate.Identity {
	return middleware.Identity(c)
}

// I18nWeb retrieves an internationalized message for the web interface based on the current locale.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.I18n(c, name, params...)
}
