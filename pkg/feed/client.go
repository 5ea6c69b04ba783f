package feed

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hervehildenbrand/saferoute/pkg/sessionlog"
)

// Connection settings
const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 1 * time.Minute
	reconnectBackoff      = 2.0
	handshakeTimeout      = 15 * time.Second
)

// Client follows a remote analysis feed with automatic reconnection.
type Client struct {
	url     string
	entries chan<- sessionlog.Entry
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger

	// Stats
	messagesReceived uint64
	entriesParsed    uint64
	entriesDropped   uint64
	errors           uint64
	reconnects       uint64

	// State
	running   atomic.Bool
	connected atomic.Bool
}

// NewClient creates a client that delivers entries from url onto entries.
func NewClient(url string, entries chan<- sessionlog.Entry) *Client {
	return &Client{
		url:     url,
		entries: entries,
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "feed-client", "url", url),
	}
}

// Start begins the WebSocket connection in a goroutine.
func (c *Client) Start() {
	if c.running.Swap(true) {
		c.logger.Warn("client already running")
		return
	}

	c.wg.Add(1)
	go c.runLoop()
	c.logger.Info("client started")
}

// Stop gracefully shuts down the client.
func (c *Client) Stop() {
	if !c.running.Swap(false) {
		return
	}
	close(c.done)
	c.wg.Wait()
	c.logger.Info("client stopped")
}

// Stats returns current statistics.
func (c *Client) Stats() map[string]interface{} {
	return map[string]interface{}{
		"url":               c.url,
		"connected":         c.connected.Load(),
		"messages_received": atomic.LoadUint64(&c.messagesReceived),
		"entries_parsed":    atomic.LoadUint64(&c.entriesParsed),
		"entries_dropped":   atomic.LoadUint64(&c.entriesDropped),
		"errors":            atomic.LoadUint64(&c.errors),
		"reconnects":        atomic.LoadUint64(&c.reconnects),
	}
}

// nextDelay doubles d up to maxReconnectDelay.
func nextDelay(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * reconnectBackoff)
	if d > maxReconnectDelay {
		d = maxReconnectDelay
	}
	return d
}

func (c *Client) runLoop() {
	defer c.wg.Done()

	reconnectDelay := initialReconnectDelay

	for c.running.Load() {
		streamed, err := c.connectAndStream()
		if err != nil {
			atomic.AddUint64(&c.errors, 1)
			atomic.AddUint64(&c.reconnects, 1)
			c.logger.Warn("connection error, reconnecting", "error", err, "delay", reconnectDelay)
		}
		if streamed {
			reconnectDelay = initialReconnectDelay
		}

		select {
		case <-c.done:
			return
		case <-time.After(reconnectDelay):
			reconnectDelay = nextDelay(reconnectDelay)
		}
	}
}

// connectAndStream reads one connection until it breaks. streamed reports
// whether the connection was established.
func (c *Client) connectAndStream() (streamed bool, err error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	c.logger.Debug("connecting")
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	c.connected.Store(true)
	defer c.connected.Store(false)
	c.logger.Info("connected")

	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeTimeout))
	})

	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-c.done:
			// unblock ReadMessage
			conn.Close()
		case <-readDone:
		}
	}()

	for c.running.Load() {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || !c.running.Load() {
				return true, nil
			}
			return true, fmt.Errorf("read failed: %w", err)
		}

		if messageType != websocket.TextMessage {
			continue
		}
		atomic.AddUint64(&c.messagesReceived, 1)

		entry, err := ParseMessage(message)
		if err != nil {
			atomic.AddUint64(&c.errors, 1)
			c.logger.Debug("parse error", "error", err)
			continue
		}
		if entry == nil {
			continue
		}

		atomic.AddUint64(&c.entriesParsed, 1)
		select {
		case c.entries <- *entry:
		default:
			if atomic.AddUint64(&c.entriesDropped, 1)%1000 == 1 {
				c.logger.Warn("entry channel full, dropping entry")
			}
		}
	}
	return true, nil
}
