// Package redisbus fans broadcasts out to every process through redis
// pub/sub.
//
// Broadcast publishes to the redis channel prefix+channel. Run subscribes to
// prefix+"*" and hands every message to the local transport, usually a
// hub.Hub, so clients connected to any process receive it. Client IDs are
// random UUIDs, so the excluded client is skipped whichever process it is
// connected to.
//
//	h := hub.New(cfg.Hub)
//	bus := redisbus.New(redis.NewClient(&redis.Options{Addr: addr}), h)
//	go bus.Run(ctx)
//	b, _ := bind.New(m, bus)
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/vango-dev/tether/pkg/transport"
)

// DefaultPrefix prefixes redis channel names when none is configured.
const DefaultPrefix = "tether:"

// Bus is a Transport publishing through redis.
type Bus struct {
	client redis.UniversalClient
	local  transport.Transport
	prefix string
	logger *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithPrefix sets the redis channel prefix.
func WithPrefix(prefix string) Option {
	return func(b *Bus) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// New returns a Bus delivering to local.
func New(client redis.UniversalClient, local transport.Transport, opts ...Option) *Bus {
	b := &Bus{
		client: client,
		local:  local,
		prefix: DefaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "redisbus")
	return b
}

// message is what travels through redis.
type message struct {
	Except  transport.ClientID `json:"except,omitempty"`
	Payload []byte             `json:"payload"`
}

func encode(payload []byte, except transport.ClientID) ([]byte, error) {
	return json.Marshal(message{Except: except, Payload: payload})
}

func decode(data []byte) (message, error) {
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		return message{}, fmt.Errorf("redisbus: decode: %w", err)
	}
	return m, nil
}

// Broadcast implements transport.Transport.
func (b *Bus) Broadcast(ctx context.Context, channel string, payload []byte, except transport.ClientID) error {
	data, err := encode(payload, except)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.prefix+channel, data).Err(); err != nil {
		return fmt.Errorf("redisbus: publish %s: %w", channel, err)
	}
	return nil
}

// DefaultChannel implements transport.Transport.
func (b *Bus) DefaultChannel() string {
	return b.local.DefaultChannel()
}

// Run delivers published messages to the local transport until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, b.prefix+"*")
	defer pubsub.Close()

	// Wait for the subscription to be confirmed.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redisbus: subscribe: %w", err)
	}
	b.logger.Info("subscribed", "pattern", b.prefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.deliver(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

func (b *Bus) deliver(ctx context.Context, redisChannel string, data []byte) {
	channel := strings.TrimPrefix(redisChannel, b.prefix)
	m, err := decode(data)
	if err != nil {
		b.logger.Warn("dropping message", "channel", channel, "error", err)
		return
	}
	if err := b.local.Broadcast(ctx, channel, m.Payload, m.Except); err != nil {
		b.logger.Error("local broadcast failed", "channel", channel, "error", err)
	}
}
