// Package coerce converts raw values decoded from the wire into the declared
// type of a model field.
//
// Raw values come from a json.Decoder with UseNumber enabled, so numbers
// arrive as json.Number and keep their wire shape. Value applies two rules
// in order:
//
//  1. Float targets accept integer-shaped numbers by numeric conversion.
//  2. Everything else goes through a string-to-type parse: the raw value is
//     rendered as text and parsed with strconv, or decoded as JSON for
//     composite types.
//
// A failed conversion returns an *Error. Callers decide whether to fall back
// to the raw value.
package coerce

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Error reports a raw value that could not be converted to a type.
type Error struct {
	Value any
	Type  reflect.Type
	Err   error
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("coerce: cannot convert %#v (%T) to %s: %v", e.Value, e.Value, e.Type, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Value converts raw to target. A nil target returns raw unchanged.
func Value(raw any, target reflect.Type) (any, error) {
	if target == nil {
		return raw, nil
	}
	if raw == nil {
		switch target.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			return reflect.Zero(target).Interface(), nil
		}
		return nil, &Error{Value: raw, Type: target, Err: fmt.Errorf("null is not a %s", target)}
	}
	if target.Kind() == reflect.Interface {
		if target.NumMethod() == 0 {
			return Normalize(raw), nil
		}
		if reflect.TypeOf(raw).Implements(target) {
			return raw, nil
		}
	}
	if reflect.TypeOf(raw) == target {
		return raw, nil
	}

	if isFloat(target.Kind()) {
		if f, ok := integerShaped(raw); ok {
			out := reflect.New(target).Elem()
			out.SetFloat(f)
			return out.Interface(), nil
		}
	}

	v, err := parse(raw, target)
	if err != nil {
		return nil, &Error{Value: raw, Type: target, Err: err}
	}
	return v, nil
}

// IntegerShaped reports whether raw is a whole number on the wire: an
// integer Go value or a json.Number without fraction or exponent.
func IntegerShaped(raw any) bool {
	_, ok := integerShaped(raw)
	return ok
}

// Normalize turns json.Number into int64 when integer-shaped and float64
// otherwise, recursing into slices and maps. Other values are returned
// unchanged.
func Normalize(raw any) any {
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil && !strings.ContainsAny(string(v), ".eE") {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return string(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = Normalize(e)
		}
		return out
	}
	return raw
}

func integerShaped(raw any) (float64, bool) {
	switch v := raw.(type) {
	case json.Number:
		if strings.ContainsAny(string(v), ".eE") {
			return 0, false
		}
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return float64(i), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// parse is the generic string-to-type conversion.
func parse(raw any, target reflect.Type) (any, error) {
	out := reflect.New(target).Elem()

	switch target.Kind() {
	case reflect.String:
		s, err := text(raw)
		if err != nil {
			return nil, err
		}
		out.SetString(s)

	case reflect.Bool:
		s, err := text(raw)
		if err != nil {
			return nil, err
		}
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s, err := text(raw)
		if err != nil {
			return nil, err
		}
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, target.Bits())
		if err != nil {
			return nil, err
		}
		out.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s, err := text(raw)
		if err != nil {
			return nil, err
		}
		u, err := strconv.ParseUint(strings.TrimSpace(s), 10, target.Bits())
		if err != nil {
			return nil, err
		}
		out.SetUint(u)

	case reflect.Float32, reflect.Float64:
		s, err := text(raw)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), target.Bits())
		if err != nil {
			return nil, err
		}
		out.SetFloat(f)

	default:
		if err := decodeJSON(raw, out.Addr().Interface()); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

// text renders a scalar raw value as the string a client would have typed.
func text(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return "", fmt.Errorf("%T has no text form", raw)
}

// decodeJSON fills dst from raw. A string holding JSON is decoded as that
// JSON; anything else is re-encoded first.
func decodeJSON(raw any, dst any) error {
	if s, ok := raw.(string); ok {
		if err := json.Unmarshal([]byte(s), dst); err == nil {
			return nil
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
