package eventbus

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHub tracks connected clients and pushes events to them. Backs the
// "live feeds" realtime push mentioned in spec.md §1(e).
type WebSocketHub struct {
	clients map[*websocket.Conn]Filter
	mu      sync.RWMutex
	logger  *logger.Logger
}

// NewWebSocketHub creates a hub.
func NewWebSocketHub(l *logger.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients: make(map[*websocket.Conn]Filter),
		logger:  l,
	}
}

// ServeHTTP upgrades the connection and registers it, optionally scoped to
// a single topic via the "topic" query parameter.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	var filter Filter
	if topic := r.URL.Query().Get("topic"); topic != "" {
		filter = NewTopicFilter(topic)
	}

	h.mu.Lock()
	h.clients[conn] = filter
	h.mu.Unlock()

	go h.readLoop(conn)
}

// readLoop drains inbound frames (ping/pong, close) until the client
// disconnects, then deregisters it.
func (h *WebSocketHub) readLoop(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// broadcast pushes payload to every connected client whose filter admits
// event.
func (h *WebSocketHub) broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, filter := range h.clients {
		if filter != nil && !filter.ShouldNotify(event) {
			continue
		}
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WebSocketSubscriber adapts a WebSocketHub into a Subscriber.
type WebSocketSubscriber struct {
	hub *WebSocketHub
}

// NewWebSocketSubscriber creates a WebSocketSubscriber backed by hub.
func NewWebSocketSubscriber(hub *WebSocketHub) *WebSocketSubscriber {
	return &WebSocketSubscriber{hub: hub}
}

func (s *WebSocketSubscriber) Name() string  { return "websocket" }
func (s *WebSocketSubscriber) Filter() Filter { return nil }

func (s *WebSocketSubscriber) OnEvent(ctx context.Context, event Event) error {
	s.hub.broadcast(event)
	return nil
}
