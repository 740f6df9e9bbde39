package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/web/gate"
	"github.com/patrickmn/go-cache"
)

const (
	navigatorTTL     = 30 * time.Minute
	navigatorCleanup = 10 * time.Minute
)

// NavigateForm is one path change reported by a shell tab.
type NavigateForm struct {
	Tab  string `json:"tab" binding:"required,max=64"`
	Seq  uint64 `json:"seq" binding:"required"`
	Path string `json:"path" binding:"required"`
}

// NavigateResult is the render state the tab should show.
type NavigateResult struct {
	Snapshot gate.Snapshot `json:"snapshot"`
	// Stale is set when a newer path change of the same tab superseded this one.
	Stale bool `json:"stale"`
}

// ShellController runs the client gate for shell tabs that ask the server to
// decide a navigation.
type ShellController struct {
	BaseController

	navigators *cache.Cache
}

// NewShellController creates a ShellController and registers its routes.
func NewShellController(g *gin.RouterGroup, table *gate.Table) *ShellController {
	a := &ShellController{
		BaseController: BaseController{table: table},
		navigators:     cache.New(navigatorTTL, navigatorCleanup),
	}
	g.POST("/shell/navigate", a.navigate)
	return a
}

// navigator returns the tab's navigator, creating it on first use. Every
// access extends its lifetime.
func (a *ShellController) navigator(tab string) *gate.Navigator {
	if v, ok := a.navigators.Get(tab); ok {
		nav := v.(*gate.Navigator)
		a.navigators.SetDefault(tab, nav)
		return nav
	}
	nav := gate.NewNavigator(a.table)
	if err := a.navigators.Add(tab, nav, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := a.navigators.Get(tab); ok {
			return v.(*gate.Navigator)
		}
	}
	return nav
}

func (a *ShellController) navigate(c *gin.Context) {
	var form NavigateForm
	if err := c.ShouldBindJSON(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, err.Error())
		return
	}

	nav := a.navigator(form.Tab)
	ticket := nav.Begin(form.Seq, form.Path)
	snap, applied := nav.Resolve(ticket, a.identity(c))
	jsonObj(c, NavigateResult{Snapshot: snap, Stale: !applied}, nil)
}
