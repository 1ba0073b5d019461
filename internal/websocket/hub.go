package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"dropoutlens/internal/config"
	apierrors "dropoutlens/internal/errors"
	"dropoutlens/internal/middleware"
)

// Path is the instance reported in error frames
const Path = "/ws/clusters"

// HubConfig tunes session keepalive and request handling
type HubConfig struct {
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	RequestTimeout time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// HubConfigFrom builds the hub settings from the application config
func HubConfigFrom(cfg *config.Config) HubConfig {
	return HubConfig{
		PingPeriod:     cfg.WebSocket.PingPeriod,
		PongWait:       cfg.WebSocket.PongWait,
		WriteWait:      10 * time.Second,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxMessageSize: 512,
		SendBuffer:     16,
	}
}

func (c HubConfig) normalized() HubConfig {
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = (c.PongWait * 9) / 10
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 20 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 512
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 16
	}
	return c
}

// Hub tracks the live slider sessions
type Hub struct {
	cfg       HubConfig
	source    ClusterSource
	errors    *apierrors.ErrorHandler
	validator *middleware.StructValidator
	metrics   *Metrics
	logger    *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	running bool

	register   chan *Client
	unregister chan *Client
	refresh    chan string
	quit       chan struct{}
	done       chan struct{}
}

// NewHub creates a hub answering slider moves from source
func NewHub(cfg HubConfig, source ClusterSource, errorHandler *apierrors.ErrorHandler, metrics *Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &Hub{
		cfg:        cfg.normalized(),
		source:     source,
		errors:     errorHandler,
		validator:  middleware.NewStructValidator(),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		refresh:    make(chan string, 1),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in a goroutine. It is a no-op once started.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.Run()
}

// Stop closes every session and ends the hub loop
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

// Run is the hub's main loop
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				c.closeSend()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			h.logger.Info("websocket hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()

			ctx := c.context()
			h.metrics.recordSession(ctx, 1)
			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", c.id),
				slog.Int("total_clients", count))

			k, gen := c.restart()
			c.enqueue(Message{
				Type: TypeConnection,
				K:    k,
				Data: map[string]string{"status": "connected", "client_id": c.id},
			})
			go h.respond(ctx, c, k, gen)

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			if ok {
				delete(h.clients, c)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				c.closeSend()
				h.metrics.recordSession(c.context(), -1)
				h.logger.InfoContext(c.context(), "client unregistered",
					slog.String("client_id", c.id),
					slog.Int("total_clients", count),
					slog.Duration("connection_duration", time.Since(c.connectedAt)))
			}

		case version := <-h.refresh:
			clients := h.snapshot()
			h.logger.Info("pushing refreshed clusters",
				slog.String("dataset_version", version),
				slog.Int("client_count", len(clients)))
			for _, c := range clients {
				k, gen := c.restart()
				go h.respond(c.context(), c, k, gen)
			}
		}
	}
}

// Serve registers a session on conn and starts its pumps
func (h *Hub) Serve(conn Connection, traceID string) *Client {
	c := newClient(h, conn, traceID)
	select {
	case h.register <- c:
	case <-h.quit:
		conn.Close()
		return c
	}

	go c.WritePump()
	go c.ReadPump()
	return c
}

// Refresh recomputes the view of every session at its current k. It is
// called after the dataset has been reloaded.
func (h *Hub) Refresh(version string) {
	select {
	case h.refresh <- version:
	default:
		// a refresh is already pending
	}
}

// ClientCount returns the number of live sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// handleRequest decodes one slider move and answers it
func (h *Hub) handleRequest(ctx context.Context, c *Client, raw []byte) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		h.sendError(ctx, c, c.K(), apierrors.ErrValidation("k", "message must be a JSON object like {\"k\":3}"))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.sendError(ctx, c, c.K(), err)
		return
	}

	prev := c.K()
	k := *req.K
	if err := h.respond(ctx, c, k, c.advance(k)); err != nil {
		// a rejected k does not become the session's current view
		c.k.CompareAndSwap(int64(k), int64(prev))
	}
}

// respond computes the view for k and queues it, unless a newer slider
// move or refresh has superseded generation gen in the meantime.
func (h *Hub) respond(ctx context.Context, c *Client, k int, gen uint64) error {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.RequestTimeout)
	defer cancel()

	view, err := h.source.Clusters(ctx, k)
	if c.generation() != gen {
		h.logger.DebugContext(ctx, "dropping stale view",
			slog.String("client_id", c.id),
			slog.Int("k", k),
			slog.Int("current_k", c.K()))
		return err
	}
	if err != nil {
		h.sendError(ctx, c, k, err)
		return err
	}
	if c.enqueue(Message{Type: TypeClusters, K: k, Data: view}) {
		h.metrics.recordMessage(ctx, "out", TypeClusters)
	}
	return nil
}

func (h *Hub) sendError(ctx context.Context, c *Client, k int, err error) {
	problem := h.errors.ErrorToProblem(err, Path)
	h.logger.WarnContext(ctx, "slider request failed",
		slog.String("client_id", c.id),
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status))
	if c.enqueue(Message{Type: TypeError, K: k, Data: problem}) {
		h.metrics.recordMessage(ctx, "out", TypeError)
	}
}
