// Package websocket provides the hub that fans real-time notifications out to
// connected storefront shells.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/offerly/storefront/logger"
	"github.com/offerly/storefront/web/gate"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeNotification      MessageType = "notification"       // A notification for the viewer
	MessageTypeNotificationCount MessageType = "notification_count" // Unread counter update
	MessageTypeHeartbeat         MessageType = "heartbeat"          // Channel liveness
)

const (
	sendBufferSize = 64
	maxMessageSize = 64 * 1024
)

// Message represents a WebSocket message
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
	Time    int64       `json:"time"`
}

// Client is one connected shell. Role scopes the topic it receives.
type Client struct {
	ID   string
	Role gate.Role
	Send chan []byte
}

// NewClient creates a client with a buffered send queue.
func NewClient(id string, role gate.Role) *Client {
	return &Client{ID: id, Role: role, Send: make(chan []byte, sendBufferSize)}
}

type envelope struct {
	role gate.Role // empty for everyone
	data []byte
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// regMu guards stopped. The register case of Run never takes it.
	regMu   sync.RWMutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.regMu.Lock()
			h.stopped = true
			h.regMu.Unlock()

			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			h.drainRegister()
			logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			logger.Debugf("WebSocket client connected: %s (total: %d)", client.ID, count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			logger.Debugf("WebSocket client disconnected: %s (total: %d)", client.ID, count)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// deliver runs on the hub loop, so clients cannot be closed underneath it.
func (h *Hub) deliver(msg envelope) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.clients {
		if msg.role != "" && client.Role != msg.role {
			continue
		}
		select {
		case client.Send <- msg.data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, client := range slow {
		if _, ok := h.clients[client]; ok {
			logger.Debugf("WebSocket client %s send buffer full, disconnecting", client.ID)
			delete(h.clients, client)
			close(client.Send)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(messageType MessageType, payload any) {
	h.publish("", messageType, payload)
}

// BroadcastToRole sends a message only to clients signed in with role.
func (h *Hub) BroadcastToRole(role gate.Role, messageType MessageType, payload any) {
	h.publish(role, messageType, payload)
}

func (h *Hub) publish(role gate.Role, messageType MessageType, payload any) {
	if h == nil {
		return
	}
	if payload == nil {
		logger.Warning("Attempted to broadcast nil payload")
		return
	}

	data, err := json.Marshal(Message{
		Type:    messageType,
		Payload: payload,
		Time:    time.Now().UnixMilli(),
	})
	if err != nil {
		logger.Error("Failed to marshal WebSocket message:", err)
		return
	}
	if len(data) > maxMessageSize {
		logger.Warningf("WebSocket message too large: %d bytes, dropping", len(data))
		return
	}

	select {
	case h.broadcast <- envelope{role: role, data: data}:
	case <-time.After(100 * time.Millisecond):
		logger.Warning("WebSocket broadcast channel is full, dropping message")
	case <-h.ctx.Done():
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register registers a new client with the hub
func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.regMu.RLock()
	defer h.regMu.RUnlock()
	if h.stopped {
		close(client.Send)
		return
	}
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		close(client.Send)
	}
}

// drainRegister closes the queues of clients that were queued but never added.
// It runs after stopped is set, so no new client can be queued.
func (h *Hub) drainRegister() {
	for {
		select {
		case client := <-h.register:
			close(client.Send)
		default:
			return
		}
	}
}

// Unregister unregisters a client from the hub
func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Stop cancels the hub. Run closes every client queue before it returns.
func (h *Hub) Stop() {
	if h == nil {
		return
	}
	h.cancel()
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
