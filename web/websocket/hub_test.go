package websocket

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/offerly/storefront/web/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(func() {
		hub.Stop()
		<-hub.Done()
	})
	return hub
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send queue closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestHubBroadcast(t *testing.T) {
	hub := startHub(t)
	admin := NewClient("a", gate.RoleAdmin)
	owner := NewClient("o", gate.RoleBusinessOwner)
	hub.Register(admin)
	hub.Register(owner)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(MessageTypeHeartbeat, map[string]int{"clients": 2})
	assert.Equal(t, MessageTypeHeartbeat, receive(t, admin).Type)
	assert.Equal(t, MessageTypeHeartbeat, receive(t, owner).Type)

	hub.BroadcastToRole(gate.RoleBusinessOwner, MessageTypeNotification, map[string]string{"title": "new review"})
	assert.Equal(t, MessageTypeNotification, receive(t, owner).Type)
	select {
	case <-admin.Send:
		t.Fatal("admin received an owner notification")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesQueue(t *testing.T) {
	hub := startHub(t)
	c := NewClient("u", gate.RoleUser)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-c.Send
	assert.False(t, ok)

	// A second unregister is harmless.
	hub.Unregister(c)
}

func TestHubDropsNilPayload(t *testing.T) {
	hub := startHub(t)
	c := NewClient("u", gate.RoleUser)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(MessageTypeNotification, nil)
	select {
	case <-c.Send:
		t.Fatal("nil payload was delivered")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNilHubIsSafe(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.Broadcast(MessageTypeHeartbeat, "x")
		hub.Register(NewClient("x", gate.RoleUser))
		hub.Stop()
	})
}

func TestHubStopClosesQueuedClients(t *testing.T) {
	hub := NewHub()
	queued := NewClient("q", gate.RoleUser)
	hub.Register(queued)

	hub.Stop()
	go hub.Run()
	<-hub.Done()

	_, ok := <-queued.Send
	assert.False(t, ok, "queued client left open")
	assert.Zero(t, hub.GetClientCount())

	late := NewClient("l", gate.RoleAdmin)
	hub.Register(late)
	_, ok = <-late.Send
	assert.False(t, ok, "client registered after stop left open")
}
