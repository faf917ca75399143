// Package live pushes the public scoreboard to spectators over WebSocket.
//
// The Hub is a service subscriber: Publish runs under the service lock, so it
// only marshals the board once and does non-blocking sends. A spectator whose
// buffer is full is disconnected and reconnects to get the latest board.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultSendBuffer   = 16
	writeWait           = 10 * time.Second
	maxMessageSize      = 512
)

// Hub fans board updates out to connected spectators.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	closed  bool

	upgrader     websocket.Upgrader
	pingInterval time.Duration
	sendBuffer   int
	log          logger.Logger
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub with no spectators.
func New(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingInterval: defaultPingInterval,
		sendBuffer:   defaultSendBuffer,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish sends the board of u to every spectator. It never blocks.
func (h *Hub) Publish(ctx context.Context, u service.Update) {
	data, err := json.Marshal(u.Board)
	if err != nil {
		h.log.Error(ctx, "failed to encode board", logger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			metrics.RecordLiveDropped()
			h.log.Warn(ctx, "spectator too slow, disconnecting", logger.String("id", c.id))
			h.removeLocked(c)
		}
	}
	metrics.RecordLiveBroadcast()
}

// ServeHTTP upgrades the request and streams boards until the spectator leaves.
// The latest board is sent straight after the upgrade.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Debug(ctx, "websocket upgrade failed", logger.Error(fmt.Errorf("%w: %w", ErrUpgrade, err)))
		return
	}

	c := &client{id: uuid.NewString(), hub: h, conn: conn, send: make(chan []byte, h.sendBuffer)}
	if err := h.register(c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	h.log.Debug(ctx, "spectator connected", logger.String("id", c.id))

	go c.writePump()
	c.readPump(ctx)
}

// Count returns the number of connected spectators.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every spectator. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	metrics.UpdateLiveConnections(len(h.clients))
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked closes c's send channel once. Callers hold h.mu.
func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.UpdateLiveConnections(len(h.clients))
}

// readPump discards spectator messages and keeps the read deadline alive on pong.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
		c.hub.log.Debug(ctx, "spectator disconnected", logger.String("id", c.id))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	deadline := c.hub.pingInterval + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
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
