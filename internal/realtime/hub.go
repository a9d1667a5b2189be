package realtime

import (
	"sync"

	"github.com/rs/zerolog"
)

const clientBuffer = 16

// Client is one websocket connection. The connection's writer drains Send.
type Client struct {
	UserID string
	Send   chan Notification
}

// Hub tracks local connections per user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log,
	}
}

// Register adds a connection; a user may hold several.
func (h *Hub) Register(userID string) *Client {
	c := &Client{UserID: userID, Send: make(chan Notification, clientBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	return c
}

// Unregister removes the connection and closes its channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Deliver hands n to every local connection of n.UserID. Slow connections
// drop the notification instead of blocking the subscriber.
func (h *Hub) Deliver(n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[n.UserID] {
		select {
		case c.Send <- n:
		default:
			h.log.Warn().Str("user_id", n.UserID).Str("type", string(n.Type)).Msg("notification dropped, client buffer full")
		}
	}
}

func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
