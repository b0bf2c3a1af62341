package server

import (
	"sync"

	"arena-server/internal/game"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 100
)

// Hub tracks connected clients and hands them to the single room.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	// Connection limiting (accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	room *game.Room
	db   *DB
	auth *Auth
}

// NewHub creates a hub bound to a room. db and auth may be nil in tests.
func NewHub(room *game.Room, db *DB, auth *Auth) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		ipConns: make(map[string]int),
		room:    room,
		db:      db,
		auth:    auth,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register adds the client and assigns its room role synchronously, so
// the role-assigned unicast is queued before the read pump can deliver
// any claim from this connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	h.room.Connect(c.playerID, c.userID, c.displayName, c)
	ObserveConnection(h.ClientCount())
}

// Unregister removes the client from the hub and the room.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	h.room.Disconnect(c.playerID)
	ObserveConnection(h.ClientCount())
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
