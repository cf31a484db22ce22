package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/patsnet/petri/service"
)

// Hub streams step events to connected editor clients. It is a step
// observer: every successful engine call is pushed to all sockets.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// the canvas is served from a different origin during development
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

var _ service.Observer = (*Hub)(nil)

// ObserveStep broadcasts one step event to every client, dropping sockets
// that fail to take the write.
func (h *Hub) ObserveStep(_ context.Context, ev service.StepEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteJSON(ev); err != nil {
			h.logger.Debug("dropping websocket client", zap.Error(err))
			_ = c.Close()
			delete(h.clients, c)
		}
	}
	return nil
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	go func() {
		// drain control frames; a read error means the client went away
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		h.mu.Lock()
		if h.clients[c] {
			_ = c.Close()
			delete(h.clients, c)
		}
		h.mu.Unlock()
	}()
}
