package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"contactcenter_backend/internal/rbac"
	"contactcenter_backend/platform/bus"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	readLimit  = 4096
)

// wsConn is the subset of *websocket.Conn the client uses, extracted so the
// routing logic is testable without a live socket.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one open gateway connection and the identity it authenticated as.
type Client struct {
	hub         *Hub
	conn        wsConn
	send        chan []byte
	userID      uuid.UUID
	roles       []string
	displayName string
	closeOnce   sync.Once
}

func newClient(hub *Hub, conn wsConn, userID uuid.UUID, roles []string, displayName string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 64),
		userID:      userID,
		roles:       roles,
		displayName: displayName,
	}
}

func (c *Client) isAgent() bool {
	return rbac.IsAgent(c.roles)
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump decodes inbound envelopes one at a time, in arrival order, and
// hands each to route. It unregisters the client when the connection drops.
func (c *Client) readPump(route func(*Client, bus.Envelope), closed func(*Client)) {
	defer func() {
		c.hub.unregister <- c
		closed(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env bus.Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
			// A malformed message never terminates the connection.
			c.hub.log.Warn("gateway received malformed message", "userID", c.userID)
			continue
		}

		route(c, env)
	}
}

// writePump drains the send buffer onto the socket and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
