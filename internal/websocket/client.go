package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"dropoutlens/internal/infrastructure"
)

// Client is one slider session. It remembers the last requested cluster
// count so the hub can push a fresh view after a dataset reload.
type Client struct {
	hub  *Hub
	conn Connection

	// Buffered channel of outbound messages
	send   chan []byte
	mu     sync.Mutex
	closed bool

	id          string
	traceID     string
	connectedAt time.Time
	k           atomic.Int64
	gen         atomic.Uint64

	logger *slog.Logger

	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
}

func newClient(hub *Hub, conn Connection, traceID string) *Client {
	id := uuid.New().String()
	c := &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, hub.cfg.SendBuffer),
		id:          id,
		traceID:     traceID,
		connectedAt: time.Now(),
		logger: hub.logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
	c.k.Store(int64(hub.source.DefaultK()))
	return c
}

// ID returns the session identifier
func (c *Client) ID() string {
	return c.id
}

// K returns the cluster count of the last slider move
func (c *Client) K() int {
	return int(c.k.Load())
}

// advance records a slider move and returns its generation. A view is
// only delivered while its generation is still the latest.
func (c *Client) advance(k int) uint64 {
	c.k.Store(int64(k))
	return c.gen.Add(1)
}

// restart starts a new generation at the current cluster count
func (c *Client) restart() (int, uint64) {
	gen := c.gen.Add(1)
	return c.K(), gen
}

func (c *Client) generation() uint64 {
	return c.gen.Load()
}

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// enqueue queues a frame without blocking. Frames for a slow reader are
// dropped.
func (c *Client) enqueue(msg Message) bool {
	msg.TraceID = c.traceID
	msg.Timestamp = time.Now().UTC()
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.ErrorContext(c.context(), "failed to encode websocket message",
			slog.String("error", err.Error()))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.logger.WarnContext(c.context(), "client send buffer full, dropping frame",
			slog.String("type", msg.Type))
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads slider moves until the connection fails or closes
func (c *Client) ReadPump() {
	ctx := c.context()
	defer func() {
		c.logger.InfoContext(ctx, "websocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived.Load()))
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(ctx, "unexpected websocket close",
					slog.String("error", err.Error()))
			}
			return
		}

		c.messagesReceived.Add(1)
		c.hub.metrics.recordMessage(ctx, "in", "request")
		c.hub.handleRequest(ctx, c, message)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	ctx := c.context()
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(ctx, "websocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent.Load()))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.WarnContext(ctx, "error writing websocket message",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent.Add(1)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "failed to send ping",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
