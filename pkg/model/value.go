package model

import (
	"reflect"

	"github.com/vango-dev/tether/pkg/reactive"
)

// FieldValue is a field read from a model instance: either a plain value or
// a reactive cell, selected by Kind.
type FieldValue struct {
	Field Field

	// Plain is the addressable field value when Kind is Plain.
	Plain reflect.Value

	// Cell is the reactive cell when Kind is Reactive.
	Cell reactive.Cell
}

// Kind returns the variant tag.
func (fv FieldValue) Kind() Kind {
	return fv.Field.Kind
}

// Current returns the value held by the field, unwrapping reactive cells.
func (fv FieldValue) Current() any {
	switch fv.Field.Kind {
	case Reactive:
		return fv.Cell.Value()
	default:
		return fv.Plain.Interface()
	}
}

// Raw returns what the field stores: the cell itself for reactive fields.
func (fv FieldValue) Raw() any {
	if fv.Field.Kind == Reactive {
		return fv.Cell
	}
	return fv.Plain.Interface()
}

// DeclaredType is the type inbound values are coerced to. Interface-typed
// fields report the dynamic type of their current value when there is one.
func (fv FieldValue) DeclaredType() reflect.Type {
	t := fv.Field.Type
	if t.Kind() != reflect.Interface {
		return t
	}
	if cur := fv.Current(); cur != nil {
		return reflect.TypeOf(cur)
	}
	return t
}

// Value reads field f from m.
func (s *Schema) Value(m any, f Field) (FieldValue, error) {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != s.Type {
		return FieldValue{}, ErrNotStructPointer
	}
	fv := rv.Elem().FieldByIndex(f.index)

	switch f.Kind {
	case Reactive:
		var cell reactive.Cell
		if f.pointer {
			if fv.IsNil() {
				return FieldValue{}, ErrNilCell
			}
			cell = fv.Interface().(reactive.Cell)
		} else {
			cell = fv.Addr().Interface().(reactive.Cell)
		}
		return FieldValue{Field: f, Cell: cell}, nil
	default:
		return FieldValue{Field: f, Plain: fv}, nil
	}
}

// Values reads every field of m in declaration order.
func (s *Schema) Values(m any) ([]FieldValue, error) {
	out := make([]FieldValue, 0, len(s.Fields))
	for _, f := range s.Fields {
		fv, err := s.Value(m, f)
		if err != nil {
			return nil, err
		}
		out = append(out, fv)
	}
	return out, nil
}
