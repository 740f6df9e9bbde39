package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/logger"
	"github.com/offerly/storefront/web/gate"
	"github.com/offerly/storefront/web/service"
	"github.com/offerly/storefront/web/session"
)

// AccountAPI is the part of the platform API the web layer depends on.
type AccountAPI interface {
	Login(ctx context.Context, creds service.Credentials) (*service.Login, error)
	UnreadNotifications(ctx context.Context, token string) (int, error)
}

// LoginForm represents the login request structure.
type LoginForm struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// IndexController handles sign-in, sign-out and the unauthorized page.
type IndexController struct {
	BaseController

	account AccountAPI
}

// NewIndexController creates a new IndexController and registers its page
// routes on pages and its form endpoint on forms.
func NewIndexController(pages, forms *gin.RouterGroup, table *gate.Table, account AccountAPI) *IndexController {
	a := &IndexController{BaseController: BaseController{table: table}, account: account}
	a.initRouter(pages, forms)
	return a
}

func (a *IndexController) initRouter(pages, forms *gin.RouterGroup) {
	pages.GET(gate.LoginPath, a.loginPage)
	pages.GET("/logout", a.logout)
	pages.GET(gate.UnauthorizedPath, a.unauthorized)

	forms.POST(gate.LoginPath, a.login)
}

// loginPage renders the sign-in form. Identified visitors never get here: the
// edge gate sends them to their landing page first.
func (a *IndexController) loginPage(c *gin.Context) {
	html(c, http.StatusOK, "login.html", "pages.login.title", nil)
}

// login signs the visitor in against the platform API and writes both cookies.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "pages.login.toasts.invalidFormData"))
		return
	}

	login, err := a.account.Login(c.Request.Context(), service.Credentials{Email: form.Email, Password: form.Password})
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		logger.Warningf("failed sign-in for %q from %s", form.Email, getRemoteIp(c))
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "pages.login.toasts.wrongCredentials"))
		return
	case err != nil:
		logger.Error("sign-in failed:", err)
		pureJsonMsg(c, http.StatusBadGateway, false, I18nWeb(c, "pages.login.toasts.unavailable"))
		return
	}

	if err := session.SetLogin(c, login.Token, login.Identity, login.MaxAge); err != nil {
		logger.Error("unable to write login cookies:", err)
		pureJsonMsg(c, http.StatusBadGateway, false, I18nWeb(c, "pages.login.toasts.unavailable"))
		return
	}
	logger.Infof("%s signed in as %s from %s", form.Email, login.Identity.Role, getRemoteIp(c))

	target := a.table.Edge(gate.LoginPath, &login.Identity).Location
	jsonMsgObj(c, I18nWeb(c, "pages.login.toasts.successLogin"), gin.H{"redirect": target}, nil)
}

// logout clears both cookies and returns to the sign-in page.
func (a *IndexController) logout(c *gin.Context) {
	if id := a.identity(c); id != nil {
		logger.Infof("%s signed out from %s", id.Role, getRemoteIp(c))
	}
	session.ClearLogin(c)
	c.Redirect(http.StatusTemporaryRedirect, gate.LoginPath)
}

// unauthorized explains that the account lacks permission for the page.
func (a *IndexController) unauthorized(c *gin.Context) {
	home := gate.LandingFor(a.identity(c))
	html(c, http.StatusForbidden, "unauthorized.html", "pages.unauthorized.title", gin.H{"home": home})
}
