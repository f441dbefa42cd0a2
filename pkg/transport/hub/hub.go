// Package hub is a Transport serving websocket clients of this process.
//
// Each connection gets a random client ID and subscribes to the channels
// named by its "channel" query parameters, or to the default channel.
// Inbound text messages are protocol envelopes:
//
//	{"message": "subscribe",   "channel": "room-2"}
//	{"message": "unsubscribe", "channel": "room-2"}
//	{"message": "watchers",    "channel": "room-2", "payload": {...}}
//
// Subscribe and unsubscribe are handled by the hub. Every other message is
// passed to the Dispatcher with the sender stored in the context
// (transport.WithClient).
//
// A Hub has one read and one write goroutine per client. Broadcast never
// blocks: a client whose send queue is full is disconnected.
package hub

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/vango-dev/tether/pkg/protocol"
	"github.com/vango-dev/tether/pkg/telemetry"
	"github.com/vango-dev/tether/pkg/transport"
)

// Dispatcher handles inbound envelopes.
type Dispatcher interface {
	Dispatch(ctx context.Context, env protocol.Envelope) (string, error)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, env protocol.Envelope) (string, error)

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, env protocol.Envelope) (string, error) {
	return f(ctx, env)
}

// Reasons a client is disconnected by the hub.
const (
	DropSlow     = "slow"
	DropShutdown = "shutdown"
)

// Hub is a websocket Transport.
type Hub struct {
	config   *Config
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	clients    map[transport.ClientID]*client
	dispatcher Dispatcher
	closed     bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics records connections and drops in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithDispatcher sets the handler for inbound messages.
func WithDispatcher(d Dispatcher) Option {
	return func(h *Hub) { h.dispatcher = d }
}

// New returns a Hub. A nil config uses DefaultConfig.
func New(cfg *Config, opts ...Option) *Hub {
	cfg = cfg.withDefaults()
	h := &Hub{
		config:  cfg,
		logger:  slog.Default(),
		clients: make(map[transport.ClientID]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "hub")
	return h
}

// SetDispatcher replaces the handler for inbound messages.
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.mu.Lock()
	h.dispatcher = d
	h.mu.Unlock()
}

// DefaultChannel implements transport.Transport.
func (h *Hub) DefaultChannel() string {
	return h.config.Channel
}

// ServeHTTP upgrades the request and serves the client until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channels := r.URL.Query()["channel"]
	if len(channels) == 0 {
		channels = []string{h.config.Channel}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(h, conn, transport.ClientID(uuid.NewString()))
	for _, ch := range channels {
		c.subscribe(ch)
	}
	if err := h.register(c); err != nil {
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump(r.Context())
}

func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return transport.ErrClosed
	}
	h.clients[c.id] = c
	h.metrics.ClientConnected()
	h.logger.Debug("client connected", "client", c.id)
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()

	if ok {
		h.metrics.ClientDisconnected()
		h.logger.Debug("client disconnected", "client", c.id)
	}
	c.close()
}

func (h *Hub) currentDispatcher() Dispatcher {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dispatcher
}

// Broadcast implements transport.Transport.
func (h *Hub) Broadcast(_ context.Context, channel string, payload []byte, except transport.ClientID) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return transport.ErrClosed
	}
	var slow []*client
	for id, c := range h.clients {
		if id == except || !c.subscribed(channel) {
			continue
		}
		if !c.enqueue(payload) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow client", "client", c.id, "channel", channel)
		h.metrics.ClientDropped(DropSlow)
		h.unregister(c)
	}
	return nil
}

// Clients returns the IDs of the clients subscribed to channel, sorted.
func (h *Hub) Clients(channel string) []transport.ClientID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []transport.ClientID
	for id, c := range h.clients {
		if c.subscribed(channel) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close disconnects every client. Later connections are refused and
// Broadcast returns transport.ErrClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[transport.ClientID]*client)
	h.mu.Unlock()

	for _, c := range clients {
		h.metrics.ClientDropped(DropShutdown)
		h.metrics.ClientDisconnected()
		c.shutdown()
	}
	return nil
}

func (h *Hub) dispatch(ctx context.Context, c *client, env protocol.Envelope) {
	switch env.Message {
	case protocol.MessageSubscribe:
		if env.Channel != "" {
			c.subscribe(env.Channel)
		}
		return
	case protocol.MessageUnsubscribe:
		c.unsubscribe(env.Channel)
		return
	}

	d := h.currentDispatcher()
	if d == nil {
		h.logger.Warn("no dispatcher, message dropped", "client", c.id, "message", env.Message)
		return
	}
	if env.Channel == "" {
		env.Channel = h.config.Channel
	}
	if _, err := d.Dispatch(transport.WithClient(ctx, c.id), env); err != nil {
		h.logger.Warn("dispatch failed",
			"client", c.id,
			"channel", env.Channel,
			"message", env.Message,
			"error", err)
	}
}

func (h *Hub) newLimiter() *rate.Limiter {
	if h.config.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(h.config.RateLimit, h.config.RateBurst)
}
