package bind

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/vango-dev/tether/pkg/model"
	"github.com/vango-dev/tether/pkg/render"
	"github.com/vango-dev/tether/pkg/snapshot"
	"github.com/vango-dev/tether/pkg/telemetry"
	"github.com/vango-dev/tether/pkg/transport"
	"github.com/vango-dev/tether/pkg/wirename"
)

// ListenerPrefix prefixes the keys of the listeners a Binding attaches.
const ListenerPrefix = "tether/"

// Binding is a model bound to a channel.
type Binding struct {
	model     any
	schema    *model.Schema
	channel   string
	transport transport.Transport
	opts      options
	logger    *slog.Logger

	// locks holds one mutex per field. It is not modified after New.
	locks map[string]*sync.Mutex

	writer *snapshot.Writer
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// New binds m, a pointer to a model struct, to a channel of t.
//
// Nil reactive pointer fields are allocated. When snapshots are configured,
// saved field values are restored before any listener is attached, so the
// restore itself is not broadcast. Then every reactive field gets the
// broadcast listener. Binding the same model to the same channel again
// replaces those listeners instead of adding new ones.
func New(m any, t transport.Transport, opts ...Option) (*Binding, error) {
	if t == nil {
		return nil, errors.New("bind: nil transport")
	}
	o := options{
		names:  wirename.Default,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.channel == "" {
		o.channel = t.DefaultChannel()
	}
	if o.tracer == nil {
		o.tracer = telemetry.Tracer("")
	}

	s, err := model.SchemaOf(m)
	if err != nil {
		return nil, err
	}
	if err := model.Init(m); err != nil {
		return nil, err
	}

	b := &Binding{
		model:     m,
		schema:    s,
		channel:   o.channel,
		transport: t,
		opts:      o,
		logger:    o.logger.With("channel", o.channel),
		locks:     make(map[string]*sync.Mutex, len(s.Fields)),
	}
	for _, f := range s.Fields {
		b.locks[f.Name] = &sync.Mutex{}
	}

	if o.store != nil {
		if err := b.restore(context.Background()); err != nil {
			return nil, err
		}
		b.writer = snapshot.NewWriter(o.store, o.channel, b.capture,
			snapshot.WithInterval(o.interval),
			snapshot.WithLogger(b.logger),
			snapshot.WithObserver(func(channel string, err error) {
				o.metrics.SnapshotSaved(channel, err)
			}),
		)
	}

	if err := b.attach(); err != nil {
		return nil, err
	}

	if b.writer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		b.cancel = cancel
		b.done = make(chan struct{})
		go func() {
			defer close(b.done)
			b.writer.Run(ctx)
		}()
	}
	return b, nil
}

// Channel returns the channel the model is bound to.
func (b *Binding) Channel() string {
	return b.channel
}

// Model returns the bound model.
func (b *Binding) Model() any {
	return b.model
}

// Schema returns the model's schema.
func (b *Binding) Schema() *model.Schema {
	return b.schema
}

// Names returns the wire name table.
func (b *Binding) Names() *wirename.Table {
	return b.opts.names
}

// Render renders the model's current state.
func (b *Binding) Render() (*render.Vue, error) {
	values, err := b.values()
	if err != nil {
		return nil, err
	}
	return render.Fields(b.model, values, render.Config{
		Element: b.opts.element,
		Names:   b.opts.names,
	}), nil
}

// values reads every field. Plain fields are copied under their field lock,
// so the result stays valid while edits continue. Reactive cells guard
// themselves.
func (b *Binding) values() ([]model.FieldValue, error) {
	values, err := b.schema.Values(b.model)
	if err != nil {
		return nil, err
	}
	for i, fv := range values {
		if fv.Kind() != model.Plain {
			continue
		}
		lock := b.locks[fv.Field.Name]
		lock.Lock()
		cp := reflect.New(fv.Plain.Type()).Elem()
		cp.Set(fv.Plain)
		lock.Unlock()
		values[i].Plain = cp
	}
	return values, nil
}

// Close detaches the listeners and, when snapshots are configured, saves
// the current state. Edits applied after Close return ErrClosed.
func (b *Binding) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.detach()
	if b.writer == nil {
		return nil
	}
	b.cancel()
	<-b.done
	return b.writer.Flush(ctx)
}

func (b *Binding) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// restore loads the saved state and stores every known field. Fields that
// no longer exist or no longer decode are skipped.
func (b *Binding) restore(ctx context.Context) error {
	st, err := b.opts.store.Load(ctx, b.channel)
	if errors.Is(err, snapshot.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bind: restore channel %q: %w", b.channel, err)
	}

	for name, raw := range st {
		f, ok := b.schema.Lookup(name)
		if !ok {
			b.logger.Warn("snapshot field no longer exists", "field", name)
			continue
		}
		fv, err := b.schema.Value(b.model, f)
		if err != nil {
			return err
		}
		ptr := reflect.New(fv.DeclaredType())
		if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
			b.logger.Warn("snapshot field does not decode", "field", name, "error", err)
			continue
		}
		if _, err := model.Update(b.model, b.schema, name, ptr.Elem().Interface(), nil); err != nil {
			b.logger.Warn("snapshot field not restored", "field", name, "error", err)
		}
	}
	b.logger.Info("model restored from snapshot", "fields", len(st))
	return nil
}

// capture encodes the current value of every field.
func (b *Binding) capture() (snapshot.State, error) {
	values, err := b.values()
	if err != nil {
		return nil, err
	}
	st := make(snapshot.State, len(values))
	for _, fv := range values {
		data, err := json.Marshal(fv.Current())
		if err != nil {
			return nil, fmt.Errorf("bind: snapshot field %q: %w", fv.Field.Name, err)
		}
		st[fv.Field.Name] = data
	}
	return st, nil
}
