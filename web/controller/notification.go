package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/logger"
	"github.com/offerly/storefront/web/gate"
	"github.com/offerly/storefront/web/middleware"
	hub "github.com/offerly/storefront/web/websocket"
)

// NotificationForm is a notification pushed by an administrator. An empty
// role addresses every connected shell.
type NotificationForm struct {
	Role  gate.Role `json:"role" form:"role" binding:"omitempty,oneof=user business_owner admin"`
	Title string    `json:"title" form:"title" binding:"required,max=120"`
	Body  string    `json:"body" form:"body" binding:"max=2000"`
	Link  string    `json:"link" form:"link" binding:"omitempty,startswith=/"`
}

// CountForm pushes a new unread counter to the shells of a role.
type CountForm struct {
	Role  gate.Role `json:"role" form:"role" binding:"omitempty,oneof=user business_owner admin"`
	Count *int      `json:"count" form:"count" binding:"required,min=0"`
}

// APIController serves the admin-only API.
type APIController struct {
	hub *hub.Hub
}

// NewAPIController creates an APIController and registers its routes under /api.
func NewAPIController(g *gin.RouterGroup, h *hub.Hub) *APIController {
	a := &APIController{hub: h}
	api := g.Group("/api", middleware.RoleRequired(gate.RoleAdmin))
	api.POST("/notifications", a.notify)
	api.POST("/notifications/count", a.count)
	api.GET("/logs", a.logs)
	return a
}

func (a *APIController) notify(c *gin.Context) {
	var form NotificationForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, err.Error())
		return
	}
	if form.Role == "" {
		a.hub.Broadcast(hub.MessageTypeNotification, form)
	} else {
		a.hub.BroadcastToRole(form.Role, hub.MessageTypeNotification, form)
	}
	logger.Infof("notification %q sent to %s", form.Title, topicName(form.Role))
	jsonMsg(c, "sent", nil)
}

func (a *APIController) count(c *gin.Context) {
	var form CountForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, err.Error())
		return
	}
	payload := gin.H{"count": *form.Count}
	if form.Role == "" {
		a.hub.Broadcast(hub.MessageTypeNotificationCount, payload)
	} else {
		a.hub.BroadcastToRole(form.Role, hub.MessageTypeNotificationCount, payload)
	}
	jsonMsg(c, "sent", nil)
}

// logs returns the newest buffered log lines, ?count=100&level=info by default.
func (a *APIController) logs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "100"))
	if err != nil || count <= 0 {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid count")
		return
	}
	jsonObj(c, logger.GetLogs(min(count, 1000), c.DefaultQuery("level", "info")), nil)
}

func topicName(role gate.Role) string {
	if role == "" {
		return "everyone"
	}
	return string(role)
}
