package coerce

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"testing"
)

type color string

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func TestValue(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		target reflect.Type
		want   any
	}{
		{"integer json number to float64", json.Number("5"), typeOf[float64](), 5.0},
		{"integer json number to float32", json.Number("2"), typeOf[float32](), float32(2)},
		{"go int to float64", 7, typeOf[float64](), 7.0},
		{"fractional number to float64", json.Number("5.5"), typeOf[float64](), 5.5},
		{"exponent number to float64", json.Number("1e3"), typeOf[float64](), 1000.0},
		{"number to int", json.Number("42"), typeOf[int](), 42},
		{"numeric string to int", "42", typeOf[int](), 42},
		{"padded string to int64", " 8 ", typeOf[int64](), int64(8)},
		{"number to uint8", json.Number("200"), typeOf[uint8](), uint8(200)},
		{"string to bool", "true", typeOf[bool](), true},
		{"number to string", json.Number("3.25"), typeOf[string](), "3.25"},
		{"bool to string", false, typeOf[string](), "false"},
		{"same type passthrough", "abc", typeOf[string](), "abc"},
		{"named string type", "red", typeOf[color](), color("red")},
		{"array to slice", []any{json.Number("1"), json.Number("2")}, typeOf[[]int](), []int{1, 2}},
		{"object to struct", map[string]any{"x": json.Number("1"), "y": json.Number("2")}, typeOf[point](), point{X: 1, Y: 2}},
		{"json text to struct", `{"x":3,"y":4}`, typeOf[point](), point{X: 3, Y: 4}},
		{"object to map", map[string]any{"a": "b"}, typeOf[map[string]string](), map[string]string{"a": "b"}},
		{"null to slice", nil, typeOf[[]int](), []int(nil)},
		{"null to pointer", nil, typeOf[*int](), (*int)(nil)},
		{"empty interface normalizes integers", json.Number("9"), typeOf[any](), int64(9)},
		{"empty interface normalizes floats", json.Number("9.5"), typeOf[any](), 9.5},
		{"nil target passthrough", json.Number("1"), nil, json.Number("1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(tt.raw, tt.target)
			if err != nil {
				t.Fatalf("Value() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Value() = %#v (%T), want %#v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestValueErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		target reflect.Type
	}{
		{"non-numeric string to int", "abc", typeOf[int]()},
		{"fraction to int", json.Number("1.5"), typeOf[int]()},
		{"overflow int8", json.Number("300"), typeOf[int8]()},
		{"negative to uint", json.Number("-1"), typeOf[uint]()},
		{"word to bool", "maybe", typeOf[bool]()},
		{"null to int", nil, typeOf[int]()},
		{"object to int", map[string]any{}, typeOf[int]()},
		{"string to struct", "not json", typeOf[point]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(tt.raw, tt.target)
			if err == nil {
				t.Fatalf("expected error, got %#v", got)
			}
			var ce *Error
			if !errors.As(err, &ce) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if ce.Type != tt.target {
				t.Errorf("Error.Type = %v, want %v", ce.Type, tt.target)
			}
			if !reflect.DeepEqual(ce.Value, tt.raw) {
				t.Errorf("Error.Value = %#v, want %#v", ce.Value, tt.raw)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	_, err := Value("x", typeOf[int]())
	if !errors.Is(err, strconv.ErrSyntax) {
		t.Errorf("expected wrapped strconv.ErrSyntax, got %v", err)
	}
}

func TestIntegerShaped(t *testing.T) {
	tests := []struct {
		raw  any
		want bool
	}{
		{json.Number("5"), true},
		{json.Number("-12"), true},
		{json.Number("5.0"), false},
		{json.Number("5e2"), false},
		{int64(3), true},
		{uint16(3), true},
		{3.0, false},
		{"5", false},
	}
	for _, tt := range tests {
		if got := IntegerShaped(tt.raw); got != tt.want {
			t.Errorf("IntegerShaped(%#v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	raw := map[string]any{
		"a": json.Number("1"),
		"b": []any{json.Number("2.5"), "s"},
	}
	want := map[string]any{
		"a": int64(1),
		"b": []any{2.5, "s"},
	}
	if got := Normalize(raw); !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %#v, want %#v", got, want)
	}
}
