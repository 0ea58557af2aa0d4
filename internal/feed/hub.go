// Package feed broadcasts live match state to websocket subscribers, such as
// a scoreboard display or a second device following the match.
//
// The feed is read-only: clients receive a message after every mutation and
// anything they send is discarded.
package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/rotation"
)

const (
	// sendBuffer is how many messages a client may lag behind before it is
	// disconnected.
	sendBuffer = 16
	writeWait  = 5 * time.Second
)

// Message is what clients receive.
type Message struct {
	Type  string      `json:"type"`
	State match.State `json:"state"`
	// Court is the rotation with the libero swapped in. It is sent once the
	// hub knows player roles and a rotation is on court.
	Court *rotation.View `json:"court,omitempty"`
}

// Hub fans published states out to connected clients. A client connecting
// mid-match immediately receives the latest state.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
	roleOf  func(id string) match.Role
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub that accepts connections from any origin.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish sends s to every client. Clients whose buffer is full are
// dropped rather than blocking the caller.
func (h *Hub) Publish(s match.State) error {
	h.mu.Lock()
	roleOf := h.roleOf
	h.mu.Unlock()

	msg := Message{Type: "state", State: s}
	if roleOf != nil && len(s.Rotation) > 0 {
		view := rotation.CourtView(s, roleOf)
		msg.Court = &view
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.last = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("feed client too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
			h.removeLocked(c)
		}
	}
	return nil
}

// SetRoles gives the hub the role lookup it needs to place the libero in
// published court views.
func (h *Hub) SetRoles(roleOf func(id string) match.Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roleOf = roleOf
}

// Listener adapts the hub to engine.Session.Subscribe.
func (h *Hub) Listener() func(match.State) {
	return func(s match.State) {
		if err := h.Publish(s); err != nil {
			slog.Error("feed publish failed", "match_id", s.MatchID, "error", err)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams states until
// the client disconnects or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	slog.Debug("feed client connected", "remote", r.RemoteAddr)

	go c.writeLoop()

	// Drain client frames so control messages are processed and a closed
	// connection is noticed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	slog.Debug("feed client disconnected", "remote", r.RemoteAddr)
}

// Close disconnects every client and stops accepting new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			slog.Debug("feed write deadline failed", "error", err)
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("feed write failed", "error", err)
			return
		}
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		slog.Debug("feed write deadline failed", "error", err)
		return
	}
	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, closing); err != nil {
		slog.Debug("feed close message failed", "error", err)
	}
}
