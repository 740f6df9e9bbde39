package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/offerly/storefront/logger"
	"github.com/offerly/storefront/web/middleware"
	hub "github.com/offerly/storefront/web/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
}

// WebSocketController handles WebSocket connections
type WebSocketController struct {
	hub *hub.Hub
}

// NewWebSocketController creates a new WebSocket controller. Only identified
// visitors may connect.
func NewWebSocketController(g *gin.RouterGroup, h *hub.Hub) *WebSocketController {
	w := &WebSocketController{hub: h}
	g.GET("/ws", middleware.RoleRequired(), w.handleWebSocket)
	return w
}

// handleWebSocket handles WebSocket connections
func (w *WebSocketController) handleWebSocket(c *gin.Context) {
	id := middleware.Identity(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed:", err)
		return
	}

	client := hub.NewClient(uuid.NewString(), id.Role)
	w.hub.Register(client)
	go writePump(conn, client)

	// Shells never send anything meaningful; reading only services control frames.
	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	w.hub.Unregister(client)
}

// writePump forwards hub messages to the connection until the hub closes the
// client's queue or a write fails.
func writePump(conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case data, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
