// Package transport defines how rendered changes reach connected clients.
//
// A Transport broadcasts a payload to every client subscribed to a channel,
// optionally skipping one client. The client that sent the message being
// handled travels in the context:
//
//	ctx = transport.WithClient(ctx, id)
//	...
//	t.Broadcast(ctx, channel, payload, transport.CurrentClient(ctx))
//
// Implementations live in subpackages: hub serves websocket clients of this
// process, redisbus fans broadcasts out to every process through redis, and
// transporttest records broadcasts for tests.
package transport

import (
	"context"
	"errors"
)

// ClientID identifies one connected client. It is only used to exclude the
// originator of an edit from a broadcast.
type ClientID string

// NoClient excludes nobody.
const NoClient ClientID = ""

// DefaultChannel is the channel used when a binding does not name one.
const DefaultChannel = "__"

// ErrClosed is returned by transports that have been shut down.
var ErrClosed = errors.New("transport: closed")

// Transport delivers payloads to the clients of a channel.
type Transport interface {
	// Broadcast sends payload to every client on channel except the client
	// identified by except. It does not wait for clients to receive it.
	Broadcast(ctx context.Context, channel string, payload []byte, except ClientID) error

	// DefaultChannel is the channel bindings use when none is given.
	DefaultChannel() string
}

type clientKey struct{}

// WithClient returns a context carrying the client that sent the message
// being handled.
func WithClient(ctx context.Context, id ClientID) context.Context {
	return context.WithValue(ctx, clientKey{}, id)
}

// CurrentClient returns the client stored by WithClient, or NoClient.
func CurrentClient(ctx context.Context) ClientID {
	if ctx == nil {
		return NoClient
	}
	id, _ := ctx.Value(clientKey{}).(ClientID)
	return id
}
