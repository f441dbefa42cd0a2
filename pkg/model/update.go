package model

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/tether/pkg/reactive"
)

// Update stores newValue in field of m and returns m. Reactive fields are
// assigned through their cell, which notifies listeners with opts applied.
// Plain fields are set directly.
//
// oldValue is the value the client believed the field held. It is accepted
// for symmetry with the edit message and is not compared here.
//
// Update never converts: newValue must be assignable to the declared type.
func Update(m any, s *Schema, field string, newValue, oldValue any, opts ...reactive.SetOption) (any, error) {
	f, ok := s.Lookup(field)
	if !ok {
		return m, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	fv, err := s.Value(m, f)
	if err != nil {
		return m, err
	}

	switch fv.Kind() {
	case Reactive:
		if err := fv.Cell.Assign(newValue, opts...); err != nil {
			return m, fmt.Errorf("model: field %q: %w", field, err)
		}
	default:
		if err := assign(fv.Plain, newValue); err != nil {
			return m, fmt.Errorf("model: field %q: %w", field, err)
		}
	}
	return m, nil
}

func assign(dst reflect.Value, v any) error {
	if v == nil {
		switch dst.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return fmt.Errorf("%w: nil is not a %s", ErrTypeMismatch, dst.Type())
	}
	src := reflect.ValueOf(v)
	if !src.Type().AssignableTo(dst.Type()) {
		return fmt.Errorf("%w: %s is not a %s", ErrTypeMismatch, src.Type(), dst.Type())
	}
	dst.Set(src)
	return nil
}
