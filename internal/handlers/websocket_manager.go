package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/solpulse/wallet-monitor/internal/core/ports"
	"github.com/solpulse/wallet-monitor/internal/entities"
	"github.com/solpulse/wallet-monitor/internal/observability"
)

// Manager owns the set of connected notification subscribers and fans
// events out to all of them. Delivery is best effort: a failed or slow
// write costs that subscriber the message, never blocks the emitter beyond
// the write timeout, and keeps the remaining subscribers served.
type Manager struct {
	logger   *slog.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[string]*websocket.Conn
}

// NewWebSocketManager creates a websocket manager.
func NewWebSocketManager(logger *slog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subscribers: make(map[string]*websocket.Conn),
	}
}

// Upgrade switches an HTTP connection to the websocket protocol.
func (m *Manager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return m.upgrader.Upgrade(w, r, nil)
}

// AddSubscriber registers a connection and returns its subscriber id.
func (m *Manager) AddSubscriber(conn *websocket.Conn) string {
	id := uuid.New().String()

	m.mu.Lock()
	m.subscribers[id] = conn
	count := len(m.subscribers)
	m.mu.Unlock()

	m.metrics.Subscribers.Set(float64(count))
	m.logger.Info("Notification subscriber added", "subscriber", id, "subscribers", count)

	return id
}

// RemoveSubscriber forgets a connection. The caller closes it.
func (m *Manager) RemoveSubscriber(id string) {
	m.mu.Lock()
	delete(m.subscribers, id)
	count := len(m.subscribers)
	m.mu.Unlock()

	m.metrics.Subscribers.Set(float64(count))
	m.logger.Info("Notification subscriber removed", "subscriber", id, "subscribers", count)
}

// Broadcast sends an event to every connected subscriber.
func (m *Manager) Broadcast(event entities.NotificationEvent) {
	m.metrics.BroadcastsTotal.Inc()

	// The lock also serializes writes: gorilla connections do not support
	// concurrent writers and several pollers may broadcast at once.
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, conn := range m.subscribers {
		_ = conn.SetWriteDeadline(time.Now().Add(ports.BroadcastWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			m.logger.Error("WebSocket write failed", "subscriber", id, "error", err)
		}
	}
}

// BroadcastError pushes a message-only error event to all subscribers.
func (m *Manager) BroadcastError(message string) {
	m.Broadcast(entities.NotificationEvent{Message: message})
}
