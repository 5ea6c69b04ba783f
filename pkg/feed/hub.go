package feed

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/hervehildenbrand/saferoute/pkg/sessionlog"
)

const (
	sendBufferSize = 64
	pingInterval   = 30 * time.Second
	pongWait       = 2 * pingInterval
	writeTimeout   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session log entries out to connected WebSocket clients.
// A client whose send buffer is full is disconnected rather than
// slowing down analyses.
type Hub struct {
	sessionID string
	mu        sync.Mutex
	closed    bool
	clients   map[*subscriber]struct{}
	onChange  func(clients int)
	logger    *slog.Logger
}

// NewHub creates a hub for the given session. onChange, if set, is called
// with the client count whenever a client joins or leaves.
func NewHub(sessionID string, onChange func(clients int)) *Hub {
	return &Hub{
		sessionID: sessionID,
		clients:   make(map[*subscriber]struct{}),
		onChange:  onChange,
		logger:    slog.Default().With("component", "feed"),
	}
}

// Observe broadcasts one recorded analysis. It satisfies risk.Observer.
func (h *Hub) Observe(e sessionlog.Entry, _ models.AnalysisResult) {
	msg, err := EncodeEntry(e)
	if err != nil {
		h.logger.Error("encoding feed entry", "error", err)
		return
	}
	h.broadcast(msg)
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	dropped := 0
	for sub := range h.clients {
		select {
		case sub.send <- msg:
		default:
			h.removeLocked(sub)
			dropped++
			h.logger.Warn("feed client too slow, disconnecting", "remote", sub.conn.RemoteAddr().String())
		}
	}
	count := len(h.clients)
	h.mu.Unlock()

	if dropped > 0 {
		h.changed(count)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams entries until the client leaves.
// Once the hub is closed it answers 503.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade the websocket", "error", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, sendBufferSize)}
	if hello, err := encodeHello(h.sessionID); err == nil {
		sub.send <- hello
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[sub] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.changed(count)
	h.logger.Info("feed client connected", "remote", conn.RemoteAddr().String(), "clients", count)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for sub := range h.clients {
		h.removeLocked(sub)
	}
	h.mu.Unlock()
	h.changed(0)
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// readLoop discards client messages and returns when the connection breaks.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub)

	sub.conn.SetReadLimit(1024)
	if err := sub.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer sub.conn.Close()

	for {
		select {
		case msg, ok := <-sub.send:
			if err := sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if !ok {
				// Best effort: the connection is closed right after.
				if err := sub.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
					h.logger.Debug("writing close frame", "remote", sub.conn.RemoteAddr().String(), "error", err)
				}
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	removed := h.removeLocked(sub)
	count := len(h.clients)
	h.mu.Unlock()
	if removed {
		h.changed(count)
		h.logger.Info("feed client disconnected", "remote", sub.conn.RemoteAddr().String(), "clients", count)
	}
}

func (h *Hub) removeLocked(sub *subscriber) bool {
	if _, ok := h.clients[sub]; !ok {
		return false
	}
	delete(h.clients, sub)
	close(sub.send)
	return true
}

func (h *Hub) changed(count int) {
	if h.onChange != nil {
		h.onChange(count)
	}
}
