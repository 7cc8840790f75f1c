// Package ws carries game traffic between connected browsers and the
// dispatcher over websockets.
package ws

import (
	"log/slog"
	"sync"

	"github.com/avasilyev/rps-arena-go/internal/model"
)

// Hub tracks the live connection for each player. It implements
// dispatch.Sender: payloads are queued onto the target's send channel
// without blocking, and dropped when the client cannot keep up.
type Hub struct {
	mu      sync.RWMutex
	clients map[model.PlayerID]*Client
	logger  *slog.Logger
}

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.PlayerID]*Client),
		logger:  logger.With(slog.String("component", "ws_hub")),
	}
}

// Register attaches a client as the live connection for its player. An
// existing connection for the same player is closed and replaced, so a
// reconnect wins over a stale tab.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	old := h.clients[c.playerID]
	h.clients[c.playerID] = c
	h.mu.Unlock()

	if old != nil {
		old.Close()
		h.logger.Info("connection replaced", slog.Int64("player_id", int64(c.playerID)))
	}
}

// Unregister detaches a client. A client that was already replaced by a
// newer connection is left alone.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.playerID] == c {
		delete(h.clients, c.playerID)
	}
	h.mu.Unlock()
}

// Send queues a payload for one player. Unknown players and full send
// buffers drop the payload.
func (h *Hub) Send(playerID model.PlayerID, payload []byte) {
	h.mu.RLock()
	c := h.clients[playerID]
	h.mu.RUnlock()

	if c == nil {
		return
	}

	select {
	case c.send <- payload:
	default:
		h.logger.Warn("send buffer full, dropping payload",
			slog.Int64("player_id", int64(playerID)))
	}
}

// Connected reports whether a player currently has a live connection
func (h *Hub) Connected(playerID model.PlayerID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[playerID]
	return ok
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
