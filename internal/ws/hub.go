// Package ws delivers committed mutations to connected clients. Connections
// subscribe to board rooms; every committed mutation is announced to the room
// of its board and nowhere else.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Broadcaster announces a committed mutation to a board's room. Handlers
// depend on this interface so the transport (in-process hub or a
// cross-instance relay) stays swappable.
type Broadcaster interface {
	Broadcast(boardID uuid.UUID, action string, data any)
}

// Event is the wire form of a board announcement.
type Event struct {
	Type    string    `json:"type"`
	Action  string    `json:"action"`
	BoardID uuid.UUID `json:"boardId"`
	Data    any       `json:"data,omitempty"`
}

type broadcastMessage struct {
	boardID uuid.UUID
	payload []byte
}

// Hub tracks connected clients and their room subscriptions. A single
// dispatch loop serializes broadcasts, so two announcements for the same
// board reach every subscriber in the order they were handed to Broadcast.
type Hub struct {
	clients map[*Client]struct{}
	rooms   map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run drives the dispatch loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case msg := <-h.broadcast:
			h.dispatch(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Broadcast queues a board_updated announcement for the board's room.
func (h *Hub) Broadcast(boardID uuid.UUID, action string, data any) {
	payload, err := json.Marshal(Event{
		Type:    "board_updated",
		Action:  action,
		BoardID: boardID,
		Data:    data,
	})
	if err != nil {
		log.WithError(err).WithField("action", action).Error("failed to encode broadcast event")
		return
	}
	h.broadcast <- broadcastMessage{boardID: boardID, payload: payload}
}

func (h *Hub) handleRegister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) handleUnregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.dropFromRoomsLocked(c)
	close(c.send)
}

func (h *Hub) dispatch(msg broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[msg.boardID]
	if !ok {
		return
	}
	for c := range room {
		select {
		case c.send <- msg.payload:
		default:
			// The client is not draining its queue. Dropping the
			// connection here keeps one slow reader from stalling the
			// room; the client reconnects and re-fetches state.
			log.WithField("board_id", msg.boardID).Warn("client send buffer full, dropping connection")
			go c.closeConn()
		}
	}
}

// joinRoom subscribes c to a board's room. Memberships accumulate: a
// connection can watch any number of boards at once, and joining one never
// detaches it from another.
func (h *Hub) joinRoom(c *Client, boardID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	if h.rooms[boardID] == nil {
		h.rooms[boardID] = make(map[*Client]struct{})
	}
	h.rooms[boardID][c] = struct{}{}
	if c.boards == nil {
		c.boards = make(map[uuid.UUID]struct{})
	}
	c.boards[boardID] = struct{}{}
}

// leaveRoom drops c from a single board's room; its other memberships stand.
func (h *Hub) leaveRoom(c *Client, boardID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromRoomLocked(c, boardID)
	delete(c.boards, boardID)
}

func (h *Hub) dropFromRoomsLocked(c *Client) {
	for boardID := range c.boards {
		h.dropFromRoomLocked(c, boardID)
	}
	c.boards = nil
}

func (h *Hub) dropFromRoomLocked(c *Client, boardID uuid.UUID) {
	if room, ok := h.rooms[boardID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, boardID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Closing the connections is enough: both pumps exit on a closed conn.
	// The send channels are left open so a late sendAck cannot panic.
	for c := range h.clients {
		c.closeConn()
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[uuid.UUID]map[*Client]struct{})
}

// RoomSize reports the number of connections subscribed to a board.
func (h *Hub) RoomSize(boardID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[boardID])
}
