package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexcommand/internal/auth"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	maxMsgSize  = 1024
	sendBufSize = 64
)

// WSHandler streams plan events to subscribed clients.
type WSHandler struct {
	hub      *Hub
	jwtMgr   *auth.JWTManager
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler. origins takes the same form as the CORS
// setting: "*" or a comma-separated list of allowed Origin values.
func NewWSHandler(hub *Hub, jwtMgr *auth.JWTManager, origins string) *WSHandler {
	allowed := make(map[string]bool)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return &WSHandler{
		hub:    hub,
		jwtMgr: jwtMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeWS upgrades GET /api/v1/ws. The access token comes from ?token= or a
// bearer header.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := h.jwtMgr.ValidateToken(token, auth.KindAccess)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("clientId", claims.ClientID).Msg("WebSocket upgrade failed")
		return
	}

	c := &WSConn{conn: conn, clientID: claims.ClientID, send: make(chan []byte, sendBufSize)}
	h.hub.Register(c)
	queue(c, WSEvent{Type: EventConnected, Data: map[string]any{}})

	go h.writePump(c)
	go h.readPump(c)

	log.Info().Str("clientId", c.clientID).Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

// handle applies one client message and returns the reply for it.
func (h *WSHandler) handle(c *WSConn, msg ClientMessage) WSEvent {
	if msg.ScenarioID == "" {
		return WSEvent{Type: EventError, Data: map[string]string{"error": "scenario_id required"}}
	}
	switch msg.Action {
	case ActionSubscribe:
		h.hub.Subscribe(c, msg.ScenarioID)
		return WSEvent{Type: EventSubscribed, ScenarioID: msg.ScenarioID}
	case ActionUnsubscribe:
		h.hub.Unsubscribe(c, msg.ScenarioID)
		return WSEvent{Type: EventUnsubscribed, ScenarioID: msg.ScenarioID}
	}
	return WSEvent{Type: EventError, ScenarioID: msg.ScenarioID, Data: map[string]string{"error": "unknown action " + msg.Action}}
}

// queue hands an event to the write pump, dropping it if the client is
// too far behind.
func queue(c *WSConn, ev WSEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("Failed to marshal WebSocket event")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("clientId", c.clientID).Str("type", ev.Type).Msg("Dropping WebSocket reply, buffer full")
	}
}

func (h *WSHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("clientId", c.clientID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("clientId", c.clientID).Msg("WebSocket unexpected close")
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			queue(c, WSEvent{Type: EventError, Data: map[string]string{"error": "malformed message"}})
			continue
		}
		queue(c, h.handle(c, msg))
	}
}

// writePump owns every write on the socket. Each event goes out as its own
// text frame.
func (h *WSHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
