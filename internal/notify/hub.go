package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"service-dispatch/internal/domain"
)

// Hub delivers messages to couriers connected over websocket.
type Hub struct {
	mu       sync.RWMutex
	sessions map[domain.CourierID]*session
	timeout  time.Duration
}

// session serializes writes to one connection.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[domain.CourierID]*session), timeout: 5 * time.Second}
}

// Register attaches conn to the courier, closing a previous connection.
func (h *Hub) Register(id domain.CourierID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.sessions[id]; ok {
		_ = old.conn.Close()
	}
	h.sessions[id] = &session{conn: conn}
}

// Unregister detaches conn if it is still the courier's current connection.
func (h *Hub) Unregister(id domain.CourierID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok && s.conn == conn {
		_ = s.conn.Close()
		delete(h.sessions, id)
	}
}

// Connected reports whether the courier has a live session.
func (h *Hub) Connected(id domain.CourierID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[id]
	return ok
}

// Send writes msg as JSON to the courier's connection.
func (h *Hub) Send(ctx context.Context, msg Message) error {
	h.mu.RLock()
	s, ok := h.sessions[msg.CourierID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("ws: courier %s not connected: %w", msg.CourierID, ErrUndeliverable)
	}

	deadline := time.Now().Add(h.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(deadline)
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("ws: write to courier %s: %w", msg.CourierID, err)
	}
	return nil
}
