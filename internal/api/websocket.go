package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/infrastructure/config"
	"github.com/nerrad567/domotica-core/internal/infrastructure/logging"
)

// WebSocket constants.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	// WSChannelAll subscribes a client to every event type.
	WSChannelAll = "*"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256
)

// WSMessage represents a message sent to/from a WebSocket client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload for subscribe/unsubscribe messages.
// Channels are event types such as "device.linked", or "*".
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// Hub manages WebSocket connections and broadcasts change events. It is a
// notify sink: register it with the dispatcher to stream every committed
// change to subscribed clients.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[string]struct{}
	mu            sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run starts the hub's main loop. It blocks until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub.
// Only the goroutine that successfully removes the client from the map
// closes the send channel, preventing double-close panics during shutdown.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// Name identifies the hub in dispatcher logs.
func (h *Hub) Name() string { return "websocket" }

// Handle broadcasts ev on the channel named by its event type.
func (h *Hub) Handle(_ context.Context, ev catalog.Event) error {
	h.broadcast(WSMessage{
		Type:      WSTypeEvent,
		EventType: string(ev.Type),
		Timestamp: ev.OccurredAt.UTC().Format(time.RFC3339),
		Payload:   ev,
	})
	return nil
}

// broadcast encodes msg once and queues it for every client subscribed to
// its event type. The hub lock is released before client locks are taken.
func (h *Hub) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode websocket event", "event_type", msg.EventType, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	recipients := 0
	for _, c := range clients {
		if c.isSubscribed(msg.EventType) && c.trySend(data) {
			recipients++
		}
	}
	if recipients > 0 {
		h.logger.Debug("websocket event sent", "event_type", msg.EventType, "recipients", recipients)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// upgrader accepts the same origins as the CORS middleware. Non-browser
// clients send no Origin and are always accepted.
func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.isAllowedOrigin(origin)
		},
	}
}

// handleWebSocket upgrades the connection and starts the client pumps. A
// new client receives no events until it subscribes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	s.hub.Register(c)

	t := newWSTimings(s.hub.cfg)
	go c.writePump(t)
	go c.readPump(t, int64(s.hub.cfg.MaxMessageSize))
}

// wsTimings holds the keepalive intervals derived from the websocket config.
type wsTimings struct {
	ping time.Duration // how often the server pings
	pong time.Duration // how long a write or a pong may take
}

// readDeadline is how long a connection may stay silent.
func (t wsTimings) readDeadline() time.Time {
	return time.Now().Add(t.ping + t.pong)
}

func newWSTimings(cfg config.WebSocketConfig) wsTimings {
	return wsTimings{
		ping: time.Duration(cfg.PingInterval) * time.Second,
		pong: time.Duration(cfg.PongTimeout) * time.Second,
	}
}

// readPump handles client frames until the connection fails or closes,
// then unregisters the client.
func (c *WSClient) readPump(t wsTimings, maxMessage int64) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	if maxMessage > 0 {
		c.conn.SetReadLimit(maxMessage)
	}
	c.conn.SetReadDeadline(t.readDeadline()) //nolint:errcheck // a failed deadline surfaces as a read error
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(t.readDeadline())
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		// Application messages count as liveness too; some browsers never
		// answer protocol pings.
		c.conn.SetReadDeadline(t.readDeadline()) //nolint:errcheck // see above
		c.handleMessage(frame)
	}
}

// writePump drains the send queue and pings on every tick. It exits when the
// hub closes the queue or a write fails.
func (c *WSClient) writePump(t wsTimings) {
	ticker := time.NewTicker(t.ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var (
			kind int
			data []byte
		)
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck // connection is going away
				return
			}
			kind, data = websocket.TextMessage, msg
		case <-ticker.C:
			kind = websocket.PingMessage
		}

		c.conn.SetWriteDeadline(time.Now().Add(t.pong)) //nolint:errcheck // a failed deadline surfaces as a write error
		if err := c.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}

// handleMessage dispatches one client frame.
func (c *WSClient) handleMessage(frame []byte) {
	var msg WSMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		c.replyError("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.updateSubscriptions(msg, true)
	case WSTypeUnsubscribe:
		c.updateSubscriptions(msg, false)
	case WSTypePing:
		c.reply(msg.ID, WSTypePong, nil)
	default:
		c.replyError(msg.ID, "unknown message type: "+msg.Type)
	}
}

// updateSubscriptions adds or removes the channels named in msg.Payload and
// confirms the change.
func (c *WSClient) updateSubscriptions(msg WSMessage, subscribe bool) {
	var sub WSSubscribePayload
	raw, err := json.Marshal(msg.Payload)
	if err == nil {
		err = json.Unmarshal(raw, &sub)
	}
	if err != nil {
		c.replyError(msg.ID, "invalid "+msg.Type+" payload")
		return
	}

	c.mu.Lock()
	for _, ch := range sub.Channels {
		if subscribe {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
	c.mu.Unlock()

	key := "unsubscribed"
	if subscribe {
		key = "subscribed"
	}
	c.hub.logger.Debug("websocket subscriptions changed", key, sub.Channels)
	c.reply(msg.ID, WSTypeResponse, map[string]any{key: sub.Channels})
}

// isSubscribed reports whether channel, or "*", is among the client's
// subscriptions.
func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, all := c.subscriptions[WSChannelAll]
	_, direct := c.subscriptions[channel]
	return all || direct
}

// trySend queues data without blocking. It reports false when the client's
// buffer is full or its queue was already closed by the hub.
func (c *WSClient) trySend(data []byte) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *WSClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err == nil {
		c.trySend(data)
	}
}

func (c *WSClient) replyError(id, message string) {
	c.reply(id, WSTypeError, map[string]string{"message": message})
}
