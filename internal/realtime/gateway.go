package realtime

import (
	"encoding/json"
	"net/http"

	"contactcenter_backend/internal/events"
	"contactcenter_backend/platform/bus"
	"contactcenter_backend/platform/config"
	"contactcenter_backend/platform/httpkit"
	"contactcenter_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Inbound-only message types. Clients name the raise-hand event
// inconsistently; both spellings normalize to events.TypeAgentRaisedHand.
const (
	typeAgentStatusChange = "agentStatusChange"
	typeRaiseHand         = "raiseHand"
)

// senderFallback labels supervisor messages whose sender has no display name.
const senderFallback = "Supervisor"

// Gateway authenticates WebSocket connections and routes traffic between
// open connections, role-scoped rooms and the event bus.
type Gateway struct {
	hub      *Hub
	cfg      config.JWTConfig
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewGateway creates a gateway on top of a running hub.
func NewGateway(hub *Hub, cfg config.JWTConfig, log *logger.Logger) *Gateway {
	return &Gateway{
		hub: hub,
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades GET /ws. The token travels in the query string because
// browsers cannot set headers on WebSocket handshakes; it is verified against
// the same signing authority as the REST API before the upgrade completes.
func (g *Gateway) Handle(c *gin.Context) {
	claims, err := httpkit.VerifyToken(c.Query("token"), g.cfg)
	if err != nil {
		httpkit.Error(c, http.StatusUnauthorized, "invalid or missing token", nil)
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.Error("websocket upgrade failed", "error", err)
		return
	}

	g.serve(newClient(g.hub, conn, claims.UserID, claims.Roles, claims.DisplayName))
}

// serve registers the client and pumps it until the connection drops.
func (g *Gateway) serve(client *Client) {
	g.hub.register <- client

	// Agents appear live to supervisors immediately, without waiting for
	// their first explicit status push.
	if client.isAgent() {
		g.emitToRoom(RoomSupervisor, events.TypeAgentStatusUpdate, events.AgentStatusPayload{
			AgentID:     client.userID,
			DisplayName: client.displayName,
			Status:      events.AgentStatusWaiting,
		})
	}

	go client.writePump()
	client.readPump(g.route, g.closed)
}

// route authorizes one inbound envelope against the sender's role and relays
// it. Unknown types are logged and ignored; the connection stays open.
func (g *Gateway) route(c *Client, env bus.Envelope) {
	switch env.Type {
	case typeAgentStatusChange:
		if !c.isAgent() {
			g.dropUnauthorized(c, env.Type)
			return
		}
		var in struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(env.Payload, &in); err != nil || in.Status == "" {
			g.log.Warn("gateway status change without status", "userID", c.userID)
			return
		}
		g.emitToRoom(RoomSupervisor, events.TypeAgentStatusUpdate, events.AgentStatusPayload{
			AgentID:     c.userID,
			DisplayName: c.displayName,
			Status:      in.Status,
		})

	case typeRaiseHand, events.TypeAgentRaisedHand:
		if !c.isAgent() {
			g.dropUnauthorized(c, env.Type)
			return
		}
		g.emitToRoom(RoomSupervisor, events.TypeAgentRaisedHand, events.AgentRaisedHandPayload{
			AgentID:     c.userID,
			DisplayName: c.displayName,
		})

	case events.TypeSupervisorMessage:
		var in struct {
			UserID  string `json:"userId"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Payload, &in); err != nil {
			g.log.Warn("gateway supervisor message malformed", "userID", c.userID)
			return
		}
		target, err := uuid.Parse(in.UserID)
		if err != nil {
			g.log.Warn("gateway supervisor message without target", "userID", c.userID)
			return
		}
		from := c.displayName
		if from == "" {
			from = senderFallback
		}
		g.emitToUser(target, events.TypeSupervisorMessage, events.SupervisorMessagePayload{
			From:    from,
			Message: in.Message,
		})

	case events.TypeAgentResponseMessage:
		if !c.isAgent() {
			g.dropUnauthorized(c, env.Type)
			return
		}
		var in struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Payload, &in); err != nil {
			g.log.Warn("gateway agent response malformed", "userID", c.userID)
			return
		}
		g.emitToRoom(RoomSupervisor, events.TypeAgentResponseMessage, events.AgentResponsePayload{
			AgentID:     c.userID,
			DisplayName: c.displayName,
			Message:     in.Message,
		})

	case events.TypePlanningUpdated:
		g.hub.BroadcastToRoom(RoomSupervisor, bus.Envelope{Type: events.TypePlanningUpdated})

	default:
		g.log.Warn("gateway unhandled message type", "type", env.Type, "userID", c.userID)
	}
}

// closed runs after the registry entry is removed.
func (g *Gateway) closed(c *Client) {
	if !c.isAgent() {
		return
	}
	g.emitToRoom(RoomSupervisor, events.TypeAgentStatusUpdate, events.AgentStatusPayload{
		AgentID:     c.userID,
		DisplayName: c.displayName,
		Status:      events.AgentStatusDisconnected,
	})
}

func (g *Gateway) dropUnauthorized(c *Client, msgType string) {
	g.log.Warn("gateway message not allowed for role", "type", msgType, "userID", c.userID)
}

func (g *Gateway) emitToRoom(room Room, eventType string, payload interface{}) {
	env, err := bus.NewEnvelope(eventType, payload)
	if err != nil {
		g.log.Error("marshal gateway event", "type", eventType, "error", err)
		return
	}
	g.hub.BroadcastToRoom(room, env)
}

func (g *Gateway) emitToUser(userID uuid.UUID, eventType string, payload interface{}) {
	env, err := bus.NewEnvelope(eventType, payload)
	if err != nil {
		g.log.Error("marshal gateway event", "type", eventType, "error", err)
		return
	}
	g.hub.SendToUser(userID, env)
}
