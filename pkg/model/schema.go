package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/vango-dev/tether/pkg/reactive"
)

// TagName is the struct tag that names a field on the server side.
const TagName = "tether"

var (
	// ErrNotStructPointer is returned when a model is not a non-nil pointer
	// to a struct.
	ErrNotStructPointer = errors.New("model: model must be a non-nil pointer to a struct")

	// ErrUnknownField is returned when a field name is not part of the schema.
	ErrUnknownField = errors.New("model: unknown field")

	// ErrTypeMismatch is returned when a value cannot be stored in a field
	// without conversion.
	ErrTypeMismatch = reactive.ErrTypeMismatch

	// ErrNilCell is returned when a pointer reactive field has not been
	// allocated. Init allocates them.
	ErrNilCell = errors.New("model: reactive field is nil")
)

// Kind tells how a field stores its value.
type Kind uint8

const (
	// Plain fields hold their value directly.
	Plain Kind = iota

	// Reactive fields hold a reactive.Cell.
	Reactive
)

// String returns "plain" or "reactive".
func (k Kind) String() string {
	if k == Reactive {
		return "reactive"
	}
	return "plain"
}

// Field describes one field of a model type.
type Field struct {
	// Name is the server-side identifier: the tag name or the Go name.
	Name string

	// GoName is the struct field name.
	GoName string

	// Kind is Plain or Reactive.
	Kind Kind

	// Type is the declared value type: T for reactive cells, the field type
	// for plain fields.
	Type reflect.Type

	index   []int
	pointer bool // reactive field declared as *Reactive[T]
}

// Schema is the ordered field list of a model type.
type Schema struct {
	// Type is the struct type (not the pointer).
	Type reflect.Type

	// Fields in declaration order.
	Fields []Field

	byName map[string]int
}

// Lookup returns the field named name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Reactive returns the reactive fields in declaration order.
func (s *Schema) Reactive() []Field {
	out := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Kind == Reactive {
			out = append(out, f)
		}
	}
	return out
}

var cellType = reflect.TypeOf((*reactive.Cell)(nil)).Elem()

// schemas caches reflected schemas by struct type.
var schemas sync.Map // reflect.Type -> *Schema

// SchemaOf returns the schema for the type of m, which must be a pointer to
// a struct. The schema is built once per type.
func SchemaOf(m any) (*Schema, error) {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, ErrNotStructPointer
	}
	return schemaFor(rv.Elem().Type())
}

func schemaFor(t reflect.Type) (*Schema, error) {
	if s, ok := schemas.Load(t); ok {
		return s.(*Schema), nil
	}

	s := &Schema{
		Type:   t,
		byName: make(map[string]int, t.NumField()),
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup(TagName); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}

		f := Field{
			Name:   name,
			GoName: sf.Name,
			Kind:   Plain,
			Type:   sf.Type,
			index:  sf.Index,
		}
		switch {
		case sf.Type.Kind() == reflect.Pointer && sf.Type.Implements(cellType):
			f.Kind = Reactive
			f.pointer = true
			f.Type = reflect.New(sf.Type.Elem()).Interface().(reactive.Cell).ValueType()
		case sf.Type.Kind() == reflect.Struct && reflect.PointerTo(sf.Type).Implements(cellType):
			f.Kind = Reactive
			f.Type = reflect.New(sf.Type).Interface().(reactive.Cell).ValueType()
		case sf.Anonymous:
			// Embedded non-cell structs are not flattened.
			continue
		}

		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("model: %s: duplicate field name %q", t, name)
		}
		s.byName[name] = len(s.Fields)
		s.Fields = append(s.Fields, f)
	}

	actual, _ := schemas.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

// Init allocates nil *Reactive[T] fields of m so every reactive field holds
// a usable cell.
func Init(m any) error {
	s, err := SchemaOf(m)
	if err != nil {
		return err
	}
	sv := reflect.ValueOf(m).Elem()
	for _, f := range s.Fields {
		if f.Kind != Reactive || !f.pointer {
			continue
		}
		fv := sv.FieldByIndex(f.index)
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
	}
	return nil
}
