package socket

import (
	"encoding/json"
	"sync"
	"time"

	"warehouse_backend/pkg/utils"

	"github.com/gorilla/websocket"
)

// Event is the envelope pushed to connected clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// Hub manages all connected WebSocket clients and broadcasts events to them.
type Hub struct {
	// clients holds active connections. The bool value is unused; the map is a set.
	clients map[*websocket.Conn]bool
	// mu guards clients against concurrent access from handler goroutines.
	mu sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// Register adds a new client connection to the Hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	utils.LogDebug("WebSocket client registered", map[string]interface{}{"clients": len(h.clients)})
}

// Unregister removes a client connection from the Hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		utils.LogDebug("WebSocket client unregistered", map[string]interface{}{"clients": len(h.clients)})
	}
}

// Broadcast sends an event to every connected client. Write failures are
// logged and the offending connection dropped; they never fail the caller.
func (h *Hub) Broadcast(event Event) {
	if event.SentAt.IsZero() {
		event.SentAt = time.Now()
	}
	message, err := json.Marshal(event)
	if err != nil {
		utils.LogError(err, "Failed to marshal WebSocket event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			utils.LogError(err, "Failed to write to WebSocket client, dropping connection")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// NotifyReconciliationComplete tells clients that an order was received and
// inventory quantities were reconciled, so stale views should refetch.
func (h *Hub) NotifyReconciliationComplete(orderID string) {
	h.Broadcast(Event{
		Type:    "inventory.reconciled",
		Payload: map[string]string{"order_id": orderID},
	})
}
