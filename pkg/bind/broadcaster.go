package bind

import (
	"context"

	"github.com/vango-dev/tether/pkg/protocol"
	"github.com/vango-dev/tether/pkg/render"
	"github.com/vango-dev/tether/pkg/telemetry"
	"github.com/vango-dev/tether/pkg/transport"
)

// BroadcastKey returns the key of the listener that broadcasts changes to
// channel.
func BroadcastKey(channel string) string {
	return ListenerPrefix + "broadcast:" + channel
}

// SnapshotKey returns the key of the listener that schedules snapshot saves
// for channel.
func SnapshotKey(channel string) string {
	return ListenerPrefix + "snapshot:" + channel
}

func (b *Binding) attach() error {
	for _, f := range b.schema.Reactive() {
		fv, err := b.schema.Value(b.model, f)
		if err != nil {
			return err
		}
		name := f.Name
		fv.Cell.Listen(BroadcastKey(b.channel), func(v any) {
			b.broadcastChange(name, v)
		})
		if b.writer != nil {
			fv.Cell.Listen(SnapshotKey(b.channel), func(any) {
				b.writer.MarkDirty()
			})
		}
	}
	return nil
}

func (b *Binding) detach() {
	for _, f := range b.schema.Reactive() {
		fv, err := b.schema.Value(b.model, f)
		if err != nil {
			continue
		}
		fv.Cell.Off(BroadcastKey(b.channel))
		fv.Cell.Off(SnapshotKey(b.channel))
	}
}

// broadcastChange pushes a field's new value to every client of the channel.
func (b *Binding) broadcastChange(field string, v any) {
	err := b.send(context.Background(), field, v, transport.NoClient)
	if err != nil {
		b.logger.Error("broadcast failed", "field", field, "error", err)
		return
	}
	b.opts.metrics.Broadcast(b.channel, telemetry.SourceListener)
}

// send renders (field, v) as a delta and broadcasts it, skipping except.
func (b *Binding) send(ctx context.Context, field string, v any, except transport.ClientID) error {
	payload, err := protocol.EncodeDelta(protocol.Delta{
		Key:   b.opts.names.ToWire(field),
		Value: render.Value(v, field),
	})
	if err != nil {
		return err
	}
	if err := b.transport.Broadcast(ctx, b.channel, payload, except); err != nil {
		b.opts.metrics.TransportError(b.channel)
		return &TransportError{Channel: b.channel, Field: field, Err: err}
	}
	return nil
}
