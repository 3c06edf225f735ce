package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/metrics"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Events buffered per client before it is dropped as too slow
	sendBuffer = 64
)

// Event types pushed to websocket clients
const (
	EventSnapshot = "snapshot"
	EventAnnounce = "announce"
	EventExpire   = "expire"
	EventError    = "error"
)

// Event is one message on the /events stream
type Event struct {
	Type    string       `json:"type"`
	Time    time.Time    `json:"time"`
	Device  *DeviceView  `json:"device,omitempty"`
	Devices []DeviceView `json:"devices,omitempty"`
	Error   *ErrorView   `json:"error,omitempty"`
}

// ErrorView describes a rejected telegram
type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Payload string `json:"payload,omitempty"`
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string
}

// Hub fans events out to websocket clients
type Hub struct {
	upgrader websocket.Upgrader
	snapshot func() []DeviceView

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub. snapshot supplies the device list sent to each new
// client before any live event.
func NewHub(snapshot func() []DeviceView) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the bridge is a local diagnostic service, any origin may watch
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		snapshot: snapshot,
		clients:  make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		logging.Debug("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: r.RemoteAddr,
	}

	// the snapshot is queued before registration so it precedes live events
	if data, err := json.Marshal(Event{Type: EventSnapshot, Time: time.Now(), Devices: h.snapshot()}); err == nil {
		c.send <- data
	}
	if !h.register(c) {
		_ = conn.Close()
		return
	}

	logging.Info("WebSocket client connected", zap.String("remote_addr", c.remote))

	go c.writePump()
	c.readPump()
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.WebsocketClients.Set(float64(len(h.clients)))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WebsocketClients.Set(float64(len(h.clients)))
}

// Broadcast sends ev to every client. Clients whose buffer is full are
// disconnected.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Error("Failed to encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			logging.Warn("Dropping slow WebSocket client", zap.String("remote_addr", c.remote))
			delete(h.clients, c)
			close(c.send)
		}
	}
	metrics.WebsocketClients.Set(float64(len(h.clients)))
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.WebsocketClients.Set(0)
}

// readPump discards client messages and handles pongs. It returns when the
// connection fails.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
		logging.Info("WebSocket client disconnected", zap.String("remote_addr", c.remote))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("WebSocket read failed",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
