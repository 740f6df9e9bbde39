// Package job holds the scheduled tasks of the storefront server.
package job

import (
	hub "github.com/offerly/storefront/web/websocket"
)

// HeartbeatJob tells every connected shell the channel is alive.
type HeartbeatJob struct {
	hub *hub.Hub
}

// NewHeartbeatJob creates a heartbeat job for h.
func NewHeartbeatJob(h *hub.Hub) *HeartbeatJob {
	return &HeartbeatJob{hub: h}
}

// Run implements cron.Job.
func (j *HeartbeatJob) Run() {
	if j.hub == nil {
		return
	}
	count := j.hub.GetClientCount()
	if count == 0 {
		return
	}
	j.hub.Broadcast(hub.MessageTypeHeartbeat, map[string]int{"clients": count})
}
