// Package middleware provides the gin middleware of the storefront server.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/logger"
	"github.com/offerly/storefront/web/gate"
	"github.com/offerly/storefront/web/session"
)

const identityKey = "identity"

// EdgeGate evaluates the access gate before any page handler runs. It never
// touches cookies; a malformed identity cookie is logged and treated as anonymous.
func EdgeGate(table *gate.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := loadIdentity(c)
		decision := table.Edge(c.Request.URL.Path, id)
		if !decision.Allowed() {
			logger.Debugf("edge gate: %s %s -> %s (%s)", decision.Route, c.Request.URL.Path, decision.Location, decision.Reason)
			c.Redirect(http.StatusTemporaryRedirect, decision.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Identity returns the identity decoded for this request, nil when anonymous.
func Identity(c *gin.Context) *gate.Identity {
	if v, ok := c.Get(identityKey); ok {
		id, _ := v.(*gate.Identity)
		return id
	}
	return loadIdentity(c)
}

func loadIdentity(c *gin.Context) *gate.Identity {
	id, err := session.GetIdentity(c)
	if errors.Is(err, gate.ErrMalformedIdentity) {
		logger.Noticef("malformed identity cookie on %s from %s", c.Request.URL.Path, c.ClientIP())
	}
	c.Set(identityKey, id)
	return id
}
