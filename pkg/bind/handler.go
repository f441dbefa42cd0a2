package bind

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/vango-dev/tether/pkg/coerce"
	"github.com/vango-dev/tether/pkg/model"
	"github.com/vango-dev/tether/pkg/protocol"
	"github.com/vango-dev/tether/pkg/telemetry"
	"github.com/vango-dev/tether/pkg/transport"
)

// Handle applies the edit encoded in payload and returns protocol.Ack.
// Failures are logged and never reach the caller.
func (b *Binding) Handle(ctx context.Context, payload []byte) string {
	e, err := protocol.DecodeEdit(payload)
	if err != nil {
		b.logger.Warn("invalid edit", "error", err)
		b.opts.metrics.Edit(b.channel, telemetry.OutcomeInvalid, 0)
		return protocol.Ack
	}

	if err := b.Apply(ctx, e); err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			b.logger.Error("edit applied with broadcast failure", "field", e.Field, "error", err)
		} else {
			b.logger.Warn("edit rejected", "field", e.Field, "error", err)
		}
	}
	return protocol.Ack
}

// Apply applies one client edit.
//
// An edit whose new and old values are equal as received is dropped.
// Otherwise both values are coerced to the field's type (a value that does
// not coerce is kept as received), the new value is broadcast to every
// client but the sender, and the field is updated. A failed broadcast does
// not prevent the update; its TransportError is returned afterwards.
func (b *Binding) Apply(ctx context.Context, e protocol.Edit) (err error) {
	if b.isClosed() {
		return ErrClosed
	}

	start := time.Now()
	client := transport.CurrentClient(ctx)
	ctx, span := telemetry.StartEdit(ctx, b.opts.tracer, b.channel, string(client))
	span.SetAttributes(telemetry.AttrField.String(e.Field))
	outcome := telemetry.OutcomeApplied
	defer func() {
		telemetry.EndSpan(span, outcome, err)
		b.opts.metrics.Edit(b.channel, outcome, time.Since(start))
	}()

	if reflect.DeepEqual(e.NewVal, e.OldVal) {
		outcome = telemetry.OutcomeUnchanged
		return nil
	}

	f, ok := b.lookup(e.Field)
	if !ok {
		outcome = telemetry.OutcomeUnknownField
		return &UnknownFieldError{Channel: b.channel, Field: e.Field}
	}

	lock := b.locks[f.Name]
	lock.Lock()
	defer lock.Unlock()

	fv, err := b.schema.Value(b.model, f)
	if err != nil {
		outcome = telemetry.OutcomeRejected
		return err
	}
	declared := fv.DeclaredType()
	newVal := b.coerce(e.NewVal, declared, f.Name)
	oldVal := b.coerce(e.OldVal, declared, f.Name)

	sendErr := b.send(ctx, f.Name, newVal, client)
	if sendErr == nil {
		b.opts.metrics.Broadcast(b.channel, telemetry.SourceHandler)
	}

	if _, err := model.Update(b.model, b.schema, f.Name, newVal, oldVal); err != nil {
		outcome = telemetry.OutcomeRejected
		return errors.Join(err, sendErr)
	}
	// Reactive fields schedule saves from their listener.
	if f.Kind == model.Plain && b.writer != nil {
		b.writer.MarkDirty()
	}
	return sendErr
}

// lookup finds a field by server name, then by wire name.
func (b *Binding) lookup(name string) (model.Field, bool) {
	if f, ok := b.schema.Lookup(name); ok {
		return f, true
	}
	return b.schema.Lookup(b.opts.names.FromWire(name))
}

// coerce converts raw to t, keeping raw when it does not convert.
func (b *Binding) coerce(raw any, t reflect.Type, field string) any {
	v, err := coerce.Value(raw, t)
	if err != nil {
		b.logger.Error("value kept as received", "field", field, "error", err)
		b.opts.metrics.CoercionError(b.channel, field)
		return coerce.Normalize(raw)
	}
	return v
}
