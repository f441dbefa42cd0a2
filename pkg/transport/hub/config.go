package hub

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vango-dev/tether/pkg/transport"
)

// Config holds websocket and per-client limits.
type Config struct {
	// Channel is the default channel. Clients that do not name a channel
	// when connecting are subscribed to it.
	// Default: transport.DefaultChannel.
	Channel string

	// ReadTimeout is the maximum time between two messages (pongs included)
	// from a client.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to write one message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is the time between pings. It must be shorter than
	// ReadTimeout.
	// Default: 30 seconds.
	PingInterval time.Duration

	// MaxMessageSize is the maximum size of an inbound message.
	// Default: 64KB.
	MaxMessageSize int64

	// SendBuffer is the number of outbound messages queued per client.
	// A client whose queue is full is disconnected.
	// Default: 256.
	SendBuffer int

	// RateLimit is the number of inbound messages per second allowed per
	// client. Zero disables limiting. DefaultConfig sets 50.
	RateLimit rate.Limit

	// RateBurst is the burst size of the rate limiter.
	// Default: 100.
	RateBurst int

	// CheckOrigin validates the Origin header of the upgrade request.
	// Default: same host only (gorilla/websocket's default).
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Channel:        transport.DefaultChannel,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBuffer:     256,
		RateLimit:      50,
		RateBurst:      100,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Channel == "" {
		out.Channel = d.Channel
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.PingInterval <= 0 || out.PingInterval >= out.ReadTimeout {
		out.PingInterval = out.ReadTimeout * 9 / 10
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.SendBuffer <= 0 {
		out.SendBuffer = d.SendBuffer
	}
	if out.RateBurst <= 0 {
		out.RateBurst = d.RateBurst
	}
	return &out
}
