package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/caching"
	"github.com/offerly/storefront/logger"
	"github.com/offerly/storefront/web/entity"
	"github.com/offerly/storefront/web/gate"
	"github.com/offerly/storefront/web/session"
)

// PageController renders the application shell for every storefront, owner
// and admin page. The shell routes on the client; the server only decides
// whether the page may be served and with which context.
type PageController struct {
	BaseController

	account AccountAPI
	unreads *caching.Cache[int]
}

// NewPageController creates a PageController. Pages have no routes of their
// own: Render is installed as the engine's fallback behind the gates.
func NewPageController(table *gate.Table, account AccountAPI) *PageController {
	return &PageController{
		BaseController: BaseController{table: table},
		account:        account,
		unreads:        caching.NewCache[int](4096, 15*time.Second),
	}
}

// Render serves the shell for the request path.
func (a *PageController) Render(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	id := a.identity(c)
	app := entity.NewAppContext(c.Request.URL.Path, id, a.unread(c, id))
	html(c, http.StatusOK, "shell.html", "title", gin.H{"app": app})
}

func (a *PageController) unread(c *gin.Context, id *gate.Identity) int {
	token := session.GetToken(c)
	if id == nil || token == "" || a.account == nil {
		return 0
	}
	n, err := a.unreads.GetOrLoad(c.Request.Context(), token, func(ctx context.Context) (int, error) {
		return a.account.UnreadNotifications(ctx, token)
	})
	if err != nil {
		logger.Debug("unread notifications:", err)
		return 0
	}
	return n
}
