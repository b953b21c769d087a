// Package ws owns the live side of the engine: the presence registry
// (this file), the per-connection command loop, and the broadcaster that
// drains the domain-event queue. All in-memory presence and room state
// lives here; the chat engine only reads it through chat.RoomPresence.
package ws

import (
	"context"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"chatsync/internal/chat"
	"chatsync/internal/metrics"
)

type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan chat.Event

	// rooms this connection has joined; guarded by the hub mutex
	rooms map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// Hub is the presence registry. A user is online while they hold at
// least one client; each client may join any number of rooms. The hub
// is authoritative only for this process lifetime: it starts empty on
// boot and is rebuilt purely from live connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	sendBuf int
}

func NewHub(sendBuf int) *Hub {
	if sendBuf <= 0 {
		sendBuf = 64
	}
	return &Hub{
		clients: map[uint]map[*Client]struct{}{},
		rooms:   map[string]map[*Client]struct{}{},
		sendBuf: sendBuf,
	}
}

// AddClient registers a connection. The second return is true when this
// was the user's first connection, i.e. they just came online.
func (h *Hub) AddClient(userID uint, conn *websocket.Conn) (*Client, bool) {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan chat.Event, h.sendBuf),
		rooms:  map[string]struct{}{},
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	becameOnline := h.clients[userID] == nil
	if becameOnline {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	if becameOnline {
		metrics.OnlineUsers.Inc()
	}

	go c.writeLoop()
	go c.keepAliveLoop()

	return c, becameOnline
}

// RemoveClient drops a connection and its room memberships. The return
// is true when this was the user's last connection, i.e. they just went
// offline.
func (h *Hub) RemoveClient(c *Client) bool {
	c.cancel()

	h.mu.Lock()
	for room := range c.rooms {
		h.dropFromRoom(c, room)
	}
	becameOffline := false
	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
			becameOffline = true
		}
	}
	h.mu.Unlock()

	if becameOffline {
		metrics.OnlineUsers.Dec()
	}

	_ = c.Conn.Close(websocket.StatusNormalClosure, "bye")
	return becameOffline
}

func (h *Hub) JoinRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = map[*Client]struct{}{}
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) LeaveRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromRoom(c, room)
	delete(c.rooms, room)
}

// caller holds h.mu
func (h *Hub) dropFromRoom(c *Client, room string) {
	if set, ok := h.rooms[room]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
}

// InRoom reports whether any of the user's connections has joined the
// room. This backs the state machine's read guard.
func (h *Hub) InRoom(userID uint, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Snapshot returns the ids of all currently online users.
func (h *Hub) Snapshot() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uint, 0, len(h.clients))
	for uid := range h.clients {
		ids = append(ids, uid)
	}
	return ids
}

// SendToUsers queues the event on every connection of every listed user
// and returns how many connections took it. A full send buffer drops
// the event for that connection.
func (h *Hub) SendToUsers(userIDs []uint, ev chat.Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, uid := range userIDs {
		for c := range h.clients[uid] {
			select {
			case c.Send <- ev:
				n++
			default:
				// slow consumer, drop rather than block the hub
			}
		}
	}
	return n
}

// SendToRoom queues the event on every connection joined to the room.
func (h *Hub) SendToRoom(room string, ev chat.Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.rooms[room] {
		select {
		case c.Send <- ev:
			n++
		default:
		}
	}
	return n
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.Send:
			writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = wsjson.Write(writeCtx, c.Conn, ev)
			cancel()
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.Conn.Ping(pingCtx)
			cancel()
		}
	}
}
