package web

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/johnhika/dictate/internal/transcript"
)

// hub fans freshly recognized records out to connected browsers. Writes
// happen under the hub lock; the per-connection reader only waits for the
// peer to go away.
type hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub(logger *zap.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// serve is the websocket handler: register, drain incoming frames until
// the connection drops, unregister.
func (h *hub) serve(conn *websocket.Conn) {
	h.add(conn)
	defer h.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", zap.Int("clients", count))
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()
	_ = conn.Close()
	h.logger.Debug("websocket client disconnected", zap.Int("clients", count))
}

// broadcast sends one record to every client. Clients that fail to accept
// the write are dropped.
func (h *hub) broadcast(rec transcript.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(rec); err != nil {
			h.logger.Debug("dropping websocket client", zap.Error(err))
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
