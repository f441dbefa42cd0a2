package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vango-dev/tether/pkg/model"
	"github.com/vango-dev/tether/pkg/reactive"
	"github.com/vango-dev/tether/pkg/wirename"
)

// WatcherMixin is the client mixin that sends field edits back to the server.
const WatcherMixin = "tetherWatcher"

// FieldRenderer is implemented by values that render differently from their
// JSON encoding.
type FieldRenderer interface {
	RenderField(field string) any
}

// Config configures model rendering.
type Config struct {
	// Element is the CSS selector of the mount element. Empty renders el as
	// undefined.
	Element string

	// Names maps server field names to wire names.
	// Default: wirename.Default.
	Names *wirename.Table
}

// Vue is a rendered model.
type Vue struct {
	El         any             `json:"el"`
	Data       Data            `json:"data"`
	Components string          `json:"components"`
	Methods    json.RawMessage `json:"methods"`
	Mixins     []string        `json:"mixins"`
}

// Entry is one key of Data.
type Entry struct {
	Key   string
	Value any
}

// Data is an ordered JSON object.
type Data []Entry

// Get returns the value stored under key.
func (d Data) Get(key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (d Data) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

// MarshalJSON writes the entries as an object, preserving order.
func (d Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("render: field %q: %w", e.Key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Model renders m, a pointer to a model struct.
func Model(m any, cfg Config) (*Vue, error) {
	s, err := model.SchemaOf(m)
	if err != nil {
		return nil, err
	}
	values, err := s.Values(m)
	if err != nil {
		return nil, err
	}
	return Fields(m, values, cfg), nil
}

// Fields renders values, already read from m, in the order given. Callers
// that guard field access read the values themselves and render them here.
func Fields(m any, values []model.FieldValue, cfg Config) *Vue {
	names := cfg.Names
	if names == nil {
		names = wirename.Default
	}

	data := make(Data, 0, len(values))
	for _, fv := range values {
		data = append(data, Entry{
			Key:   names.ToWire(fv.Field.Name),
			Value: Value(fv.Raw(), fv.Field.Name),
		})
	}

	var el any = Undefined
	if cfg.Element != "" {
		el = cfg.Element
	}
	return &Vue{
		El:         el,
		Data:       data,
		Components: model.Components(m),
		Methods:    json.RawMessage(`{}`),
		Mixins:     []string{WatcherMixin},
	}
}

// Value renders a single field value. Reactive cells are unwrapped
// recursively, FieldRenderers render themselves, and everything else is
// returned as is.
func Value(v any, field string) any {
	switch x := v.(type) {
	case reactive.Cell:
		return Value(x.Value(), field)
	case FieldRenderer:
		return x.RenderField(field)
	default:
		return v
	}
}
