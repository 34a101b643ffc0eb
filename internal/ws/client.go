package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// JoinAuthorizer decides whether a user may watch a board. It keeps the hub
// free of any storage dependency.
type JoinAuthorizer func(ctx context.Context, userID, boardID uuid.UUID) error

// Client is one websocket connection. It may watch any number of boards at
// once; memberships are driven by join/leave messages from the peer. The
// boards set is guarded by the hub's lock.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    uuid.UUID
	boards    map[uuid.UUID]struct{}
	authorize JoinAuthorizer
	send      chan []byte
}

// clientMessage is what the peer sends: a room subscription change.
type clientMessage struct {
	Type    string    `json:"type"`
	BoardID uuid.UUID `json:"boardId"`
}

// NewClient registers a connection with the hub and starts its pumps.
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, authorize JoinAuthorizer) *Client {
	c := &Client{
		hub:       hub,
		conn:      conn,
		userID:    userID,
		authorize: authorize,
		send:      make(chan []byte, sendBufferSize),
	}
	hub.register <- c
	go c.writePump()
	go c.readPump()
	return c
}

func (c *Client) closeConn() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// readPump consumes join/leave messages until the peer goes away, then
// unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.closeConn()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("websocket read failed")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}

		switch msg.Type {
		case "join":
			if msg.BoardID == uuid.Nil {
				c.sendError("boardId is required")
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := c.authorize(ctx, c.userID, msg.BoardID)
			cancel()
			if err != nil {
				c.sendError("not authorized for this board")
				continue
			}
			c.hub.joinRoom(c, msg.BoardID)
			c.sendAck("joined", msg.BoardID)
		case "leave":
			if msg.BoardID == uuid.Nil {
				c.sendError("boardId is required")
				continue
			}
			c.hub.leaveRoom(c, msg.BoardID)
			c.sendAck("left", msg.BoardID)
		default:
			c.sendError("unknown message type")
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

func (c *Client) sendAck(msgType string, boardID uuid.UUID) {
	payload, err := json.Marshal(map[string]any{"type": msgType, "boardId": boardID})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) sendError(message string) {
	payload, err := json.Marshal(map[string]any{"type": "error", "message": message})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
