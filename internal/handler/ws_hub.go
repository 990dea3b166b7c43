package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types sent over WebSocket.
const (
	EventConnected     = "connected"
	EventOrdersEmitted = "orders_emitted"
	EventPlanCompleted = "plan_completed"
	EventSubscribed    = "subscribed"
	EventUnsubscribed  = "unsubscribed"
	EventError         = "error"
)

// Client actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type       string `json:"type"`
	ScenarioID string `json:"scenario_id"`
	Data       any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action     string `json:"action"`
	ScenarioID string `json:"scenario_id"`
}

// WSConn wraps a WebSocket connection with its client and subscriptions.
type WSConn struct {
	conn     *websocket.Conn
	clientID string
	send     chan []byte
}

// Hub manages WebSocket connections and scenario subscriptions.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	scenarios   map[string]map[*WSConn]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		scenarios:   make(map[string]map[*WSConn]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	for id, conns := range h.scenarios {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.scenarios, id)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a scenario channel.
func (h *Hub) Subscribe(c *WSConn, scenarioID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.scenarios[scenarioID] == nil {
		h.scenarios[scenarioID] = make(map[*WSConn]bool)
	}
	h.scenarios[scenarioID][c] = true
}

// Unsubscribe removes a connection from a scenario channel.
func (h *Hub) Unsubscribe(c *WSConn, scenarioID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.scenarios[scenarioID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.scenarios, scenarioID)
		}
	}
}

// BroadcastToScenario sends an event to every connection watching a scenario.
// Slow clients drop messages rather than block planning.
func (h *Hub) BroadcastToScenario(scenarioID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("scenarioId", scenarioID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.scenarios[scenarioID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("clientId", c.clientID).Str("scenarioId", scenarioID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// SubscriberCount returns the number of connections watching a scenario.
func (h *Hub) SubscriberCount(scenarioID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scenarios[scenarioID])
}
