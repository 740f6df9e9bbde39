package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/web/entity"
	"github.com/offerly/storefront/web/gate"
)

// RoleRequired guards JSON endpoints: anonymous callers get 401, callers
// holding none of roles get 403. With no roles any identity passes.
func RoleRequired(roles ...gate.Role) gin.HandlerFunc {
	allowed := make(map[gate.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		id := Identity(c)
		if id == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{Msg: "sign in required"})
			return
		}
		if len(allowed) > 0 && !allowed[id.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, entity.Msg{Msg: "insufficient privileges"})
			return
		}
		c.Next()
	}
}

// AdminShellGate is the nested gate of the admin console pages. It re-checks the
// role independently of the edge and sends everyone else to the unauthorized
// page. Paths outside the admin subtree pass through.
func AdminShellGate(table *gate.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !table.IsAdminSubtree(c.Request.URL.Path) {
			c.Next()
			return
		}
		decision := table.AdminShell(c.Request.URL.Path, Identity(c))
		if !decision.Allowed() {
			c.Redirect(http.StatusTemporaryRedirect, decision.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}
