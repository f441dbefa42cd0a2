// Package transporttest provides an in-memory Transport that records what
// every simulated client receives.
//
// Example:
//
//	rec := transporttest.NewRecorder()
//	rec.Connect("a", "counter")
//	rec.Connect("b", "counter")
//	b, _ := bind.New(m, rec, bind.WithChannel("counter"))
//	...
//	if got := rec.Received("b"); len(got) != 1 { ... }
package transporttest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vango-dev/tether/pkg/protocol"
	"github.com/vango-dev/tether/pkg/transport"
)

// Broadcast is one recorded Broadcast call.
type Broadcast struct {
	Channel string
	Payload []byte
	Except  transport.ClientID
}

// Delta decodes the payload as a protocol.Delta.
func (b Broadcast) Delta() (protocol.Delta, error) {
	var d protocol.Delta
	err := json.Unmarshal(b.Payload, &d)
	return d, err
}

// Recorder is a Transport that delivers to simulated clients in memory.
type Recorder struct {
	mu         sync.Mutex
	channel    string
	clients    map[transport.ClientID]map[string]bool
	received   map[transport.ClientID][][]byte
	broadcasts []Broadcast

	// Err, when set, is returned by Broadcast without delivering.
	Err error
}

// NewRecorder returns a Recorder whose default channel is
// transport.DefaultChannel.
func NewRecorder() *Recorder {
	return &Recorder{
		channel:  transport.DefaultChannel,
		clients:  make(map[transport.ClientID]map[string]bool),
		received: make(map[transport.ClientID][][]byte),
	}
}

// Connect subscribes client id to channels.
func (r *Recorder) Connect(id transport.ClientID, channels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.clients[id]
	if subs == nil {
		subs = make(map[string]bool)
		r.clients[id] = subs
	}
	for _, ch := range channels {
		subs[ch] = true
	}
}

// Disconnect removes client id.
func (r *Recorder) Disconnect(id transport.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// Broadcast implements transport.Transport.
func (r *Recorder) Broadcast(_ context.Context, channel string, payload []byte, except transport.ClientID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	p := append([]byte(nil), payload...)
	r.broadcasts = append(r.broadcasts, Broadcast{Channel: channel, Payload: p, Except: except})
	for id, subs := range r.clients {
		if id == except || !subs[channel] {
			continue
		}
		r.received[id] = append(r.received[id], p)
	}
	return nil
}

// DefaultChannel implements transport.Transport.
func (r *Recorder) DefaultChannel() string {
	return r.channel
}

// Broadcasts returns every recorded Broadcast call in order.
func (r *Recorder) Broadcasts() []Broadcast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Broadcast(nil), r.broadcasts...)
}

// Received returns the payloads delivered to client id in order.
func (r *Recorder) Received(id transport.ClientID) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.received[id]...)
}

// Reset forgets recorded broadcasts and deliveries, keeping clients.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = nil
	r.received = make(map[transport.ClientID][][]byte)
}

var _ transport.Transport = (*Recorder)(nil)
