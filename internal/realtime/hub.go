// Package realtime implements the WebSocket gateway: connection registry,
// role-scoped rooms, inbound message routing and the event bus relay.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"contactcenter_backend/internal/rbac"
	"contactcenter_backend/platform/bus"
	"contactcenter_backend/platform/logger"

	"github.com/google/uuid"
)

// Room is a broadcast group selected by a static role set.
type Room string

// Rooms. Each is closed under privilege escalation: every role that can see
// the admin room can also see the supervisor room.
const (
	RoomSupervisor Room = "supervisor"
	RoomAdmin      Room = "admin"
)

var roomRoles = map[Room][]string{
	RoomSupervisor: {rbac.RoleSupervisor, rbac.RoleAdministrator, rbac.RoleSuperAdmin},
	RoomAdmin:      {rbac.RoleAdministrator, rbac.RoleSuperAdmin},
}

// inRoom reports whether any of the connection's roles grants room membership.
func inRoom(roles []string, room Room) bool {
	for _, member := range roomRoles[room] {
		for _, role := range roles {
			if role == member {
				return true
			}
		}
	}
	return false
}

// Hub owns the registry of open connections. Registration goes through the
// run loop; broadcast primitives take the read lock directly so delivery
// never queues behind connect/disconnect churn.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	log        *logger.Logger
	mu         sync.RWMutex
}

// NewHub creates an empty hub. Call Run before registering connections.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run processes connect/disconnect events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("gateway client connected", "userID", client.userID, "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("gateway client disconnected", "userID", client.userID, "total", total)

		case <-ctx.Done():
			return
		}
	}
}

// Broadcast delivers the envelope to every open connection.
func (h *Hub) Broadcast(env bus.Envelope) {
	h.deliver(env, func(*Client) bool { return true })
}

// BroadcastToRoom delivers the envelope to every connection whose role set
// intersects the room's.
func (h *Hub) BroadcastToRoom(room Room, env bus.Envelope) {
	h.deliver(env, func(c *Client) bool { return inRoom(c.roles, room) })
}

// SendToUser delivers the envelope to every open connection authenticated as
// the given user. Multiple sessions per user all receive it.
func (h *Hub) SendToUser(userID uuid.UUID, env bus.Envelope) {
	h.deliver(env, func(c *Client) bool { return c.userID == userID })
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(env bus.Envelope, match func(*Client) bool) {
	data, err := json.Marshal(env)
	if err != nil {
		h.log.Error("marshal gateway envelope", "type", env.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !match(client) {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer: drop this message rather than block every
			// other delivery. The client reconciles on its next read.
			h.log.Warn("gateway send buffer full, dropping message",
				"userID", client.userID, "type", env.Type)
		}
	}
}
