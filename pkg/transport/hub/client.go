package hub

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/vango-dev/tether/pkg/protocol"
	"github.com/vango-dev/tether/pkg/transport"
)

type client struct {
	id      transport.ClientID
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	mu       sync.RWMutex
	channels map[string]bool

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, id transport.ClientID) *client {
	return &client{
		id:       id,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, h.config.SendBuffer),
		limiter:  h.newLimiter(),
		channels: make(map[string]bool),
		done:     make(chan struct{}),
	}
}

func (c *client) subscribe(channel string) {
	c.mu.Lock()
	c.channels[channel] = true
	c.mu.Unlock()
}

func (c *client) unsubscribe(channel string) {
	c.mu.Lock()
	delete(c.channels, channel)
	c.mu.Unlock()
}

func (c *client) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[channel]
}

// enqueue queues payload without blocking. It reports false when the queue
// is full.
func (c *client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// shutdown sends a close frame before closing.
func (c *client) shutdown() {
	deadline := time.Now().Add(c.hub.config.WriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	c.close()
}

// readPump reads messages until the connection fails.
func (c *client) readPump(ctx context.Context) {
	defer c.hub.unregister(c)

	cfg := c.hub.config
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.hub.logger.Error("read error", "client", c.id, "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		if c.limiter != nil && !c.limiter.Allow() {
			c.hub.metrics.RateLimited()
			c.hub.logger.Warn("rate limited", "client", c.id)
			continue
		}

		env, err := protocol.DecodeEnvelope(msg)
		if err != nil {
			c.hub.logger.Warn("envelope decode error", "client", c.id, "error", err)
			continue
		}
		c.hub.dispatch(ctx, c, env)
	}
}

// writePump writes queued messages and pings until the client closes.
func (c *client) writePump() {
	cfg := c.hub.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.logger.Debug("write error", "client", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
