package live

import (
	"sync"

	"puretrack/logger"

	"github.com/gofiber/contrib/websocket"
)

// Hub fans change notices out to connected dashboard sessions. Delivery is
// fire-and-forget: a producer never blocks on a slow or disconnected
// consumer, and a notice that does not fit in a client's buffer is dropped.
// Clients treat notices as re-fetch cues, so a dropped notice is recovered
// by the full re-fetch they perform on reconnect.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan string
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan string),
	}
}

// Register adds a connection and returns its notice channel.
func (h *Hub) Register(conn *websocket.Conn) chan string {
	ch := make(chan string, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	logger.Info("WebSocket client connected")
	return ch
}

// Unregister removes a connection and closes its channel.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	h.mu.Unlock()
	logger.Info("WebSocket client disconnected")
}

// Broadcast sends a plaintext notice to every connected client.
func (h *Hub) Broadcast(notice string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- notice:
		default:
			// Slow consumer; it will reconcile on its next full fetch.
		}
	}
}

// ClientCount returns the number of connected sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve pumps notices to a single connection until it closes. Intended to be
// used as the body of the websocket route handler.
func (h *Hub) Serve(conn *websocket.Conn) {
	ch := h.Register(conn)
	defer func() {
		h.Unregister(conn)
		_ = conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		// Drain client frames so we notice the close handshake.
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case notice, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(notice)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
