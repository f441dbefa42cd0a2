package model

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/tether/pkg/reactive"
)

type testForm struct {
	Title   string                      `tether:"title"`
	Count   reactive.Reactive[int]      `tether:"count"`
	Ratio   *reactive.Reactive[float64] `tether:"ratio"`
	Tags    []string
	Skipped int `tether:"-"`
	Any     *reactive.Reactive[any] `tether:"any,omitempty"`
	hidden  string
}

func newTestForm() *testForm {
	return &testForm{
		Title: "hello",
		Ratio: reactive.New(0.5),
	}
}

func TestSchemaOf(t *testing.T) {
	s, err := SchemaOf(newTestForm())
	if err != nil {
		t.Fatalf("SchemaOf() error = %v", err)
	}

	want := []struct {
		name string
		kind Kind
		typ  reflect.Type
	}{
		{"title", Plain, reflect.TypeOf("")},
		{"count", Reactive, reflect.TypeOf(0)},
		{"ratio", Reactive, reflect.TypeOf(0.0)},
		{"Tags", Plain, reflect.TypeOf([]string(nil))},
		{"any", Reactive, reflect.TypeOf((*any)(nil)).Elem()},
	}
	if len(s.Fields) != len(want) {
		t.Fatalf("got %d fields, want %d: %+v", len(s.Fields), len(want), s.Fields)
	}
	for i, w := range want {
		f := s.Fields[i]
		if f.Name != w.name || f.Kind != w.kind || f.Type != w.typ {
			t.Errorf("field %d = {%s %s %s}, want {%s %s %s}", i, f.Name, f.Kind, f.Type, w.name, w.kind, w.typ)
		}
	}

	if got := len(s.Reactive()); got != 3 {
		t.Errorf("Reactive() returned %d fields, want 3", got)
	}
	if _, ok := s.Lookup("hidden"); ok {
		t.Error("unexported fields must not be in the schema")
	}
	if _, ok := s.Lookup("Skipped"); ok {
		t.Error(`tether:"-" fields must not be in the schema`)
	}
}

func TestSchemaOfCachesByType(t *testing.T) {
	a, err := SchemaOf(newTestForm())
	if err != nil {
		t.Fatal(err)
	}
	b, err := SchemaOf(&testForm{})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the same *Schema for the same type")
	}
}

func TestSchemaOfRejectsNonStructPointer(t *testing.T) {
	var nilForm *testForm
	for _, m := range []any{testForm{}, 3, nil, nilForm, new(int)} {
		if _, err := SchemaOf(m); !errors.Is(err, ErrNotStructPointer) {
			t.Errorf("SchemaOf(%T) error = %v, want ErrNotStructPointer", m, err)
		}
	}
}

func TestSchemaOfDuplicateNames(t *testing.T) {
	type dup struct {
		A int `tether:"x"`
		B int `tether:"x"`
	}
	if _, err := SchemaOf(&dup{}); err == nil {
		t.Error("expected duplicate name error")
	}
}

func TestInitAllocatesNilCells(t *testing.T) {
	m := &testForm{}
	if err := Init(m); err != nil {
		t.Fatal(err)
	}
	if m.Ratio == nil || m.Any == nil {
		t.Fatal("Init should allocate nil reactive pointers")
	}

	existing := reactive.New(2.0)
	m2 := &testForm{Ratio: existing}
	if err := Init(m2); err != nil {
		t.Fatal(err)
	}
	if m2.Ratio != existing {
		t.Error("Init must keep allocated cells")
	}
}

func TestValueNilCell(t *testing.T) {
	m := &testForm{}
	s, _ := SchemaOf(m)
	f, _ := s.Lookup("ratio")
	if _, err := s.Value(m, f); !errors.Is(err, ErrNilCell) {
		t.Errorf("expected ErrNilCell, got %v", err)
	}
}

func TestFieldValueVariant(t *testing.T) {
	m := newTestForm()
	m.Count.Set(4)
	s, _ := SchemaOf(m)

	vals, err := s.Values(m)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0].Kind() != Plain || vals[0].Current() != "hello" {
		t.Errorf("title = %v %v", vals[0].Kind(), vals[0].Current())
	}
	if vals[1].Kind() != Reactive || vals[1].Current() != 4 {
		t.Errorf("count = %v %v", vals[1].Kind(), vals[1].Current())
	}
	if _, ok := vals[1].Raw().(reactive.Cell); !ok {
		t.Errorf("Raw() of a reactive field should be the cell, got %T", vals[1].Raw())
	}
	if vals[2].Current() != 0.5 {
		t.Errorf("ratio = %v", vals[2].Current())
	}
}

func TestDeclaredType(t *testing.T) {
	m := newTestForm()
	m.Any = reactive.New[any](nil)
	s, _ := SchemaOf(m)
	f, _ := s.Lookup("any")

	fv, _ := s.Value(m, f)
	if fv.DeclaredType().Kind() != reflect.Interface {
		t.Errorf("empty interface field should report interface type, got %v", fv.DeclaredType())
	}

	m.Any.Set(int64(3))
	if fv.DeclaredType() != reflect.TypeOf(int64(0)) {
		t.Errorf("interface field should report dynamic type, got %v", fv.DeclaredType())
	}

	f, _ = s.Lookup("ratio")
	fv, _ = s.Value(m, f)
	if fv.DeclaredType() != reflect.TypeOf(0.0) {
		t.Errorf("ratio declared type = %v", fv.DeclaredType())
	}
}

func TestUpdateReactive(t *testing.T) {
	m := newTestForm()
	s, _ := SchemaOf(m)

	var notified []int
	m.Count.On("test", func(n int) { notified = append(notified, n) })

	got, err := Update(m, s, "count", 7, 0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got != any(m) {
		t.Error("Update should return the same model")
	}
	if m.Count.Get() != 7 {
		t.Errorf("count = %d, want 7", m.Count.Get())
	}
	if !reflect.DeepEqual(notified, []int{7}) {
		t.Errorf("notified = %v", notified)
	}
}

func TestUpdateReactiveWithOptions(t *testing.T) {
	m := newTestForm()
	s, _ := SchemaOf(m)
	calls := 0
	m.Ratio.On("skip", func(float64) { calls++ })

	if _, err := Update(m, s, "ratio", 0.75, 0.5, reactive.Except("skip")); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Error("excepted listener must not fire")
	}
	if m.Ratio.Get() != 0.75 {
		t.Errorf("ratio = %v", m.Ratio.Get())
	}
}

func TestUpdatePlain(t *testing.T) {
	m := newTestForm()
	s, _ := SchemaOf(m)

	if _, err := Update(m, s, "title", "world", "hello"); err != nil {
		t.Fatal(err)
	}
	if m.Title != "world" {
		t.Errorf("title = %q", m.Title)
	}

	if _, err := Update(m, s, "Tags", nil, nil); err != nil {
		t.Fatal(err)
	}
	if m.Tags != nil {
		t.Errorf("Tags = %v, want nil", m.Tags)
	}
}

func TestUpdateErrors(t *testing.T) {
	m := newTestForm()
	s, _ := SchemaOf(m)

	tests := []struct {
		name  string
		field string
		value any
		want  error
	}{
		{"unknown field", "missing", 1, ErrUnknownField},
		{"plain mismatch", "title", 3, ErrTypeMismatch},
		{"reactive mismatch", "count", "three", ErrTypeMismatch},
		{"no numeric conversion", "ratio", 1, ErrTypeMismatch},
		{"nil into int", "count", nil, ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Update(m, s, tt.field, tt.value, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("Update() error = %v, want %v", err, tt.want)
			}
		})
	}
	if m.Title != "hello" || m.Count.Get() != 0 || m.Ratio.Get() != 0.5 {
		t.Error("failed updates must not mutate the model")
	}
}

func TestComponentsRegistry(t *testing.T) {
	type widget struct{ A int }
	if got := Components(&widget{}); got != "" {
		t.Errorf("unregistered Components() = %q", got)
	}
	RegisterComponents(&widget{}, "<x-a></x-a>")
	if got := Components(widget{}); got != "<x-a></x-a>" {
		t.Errorf("Components() = %q", got)
	}
	RegisterComponents(&widget{}, "<x-b></x-b>")
	if got := Components(&widget{}); got != "<x-b></x-b>" {
		t.Errorf("last registration should win, got %q", got)
	}
	if got := Components(nil); got != "" {
		t.Errorf("Components(nil) = %q", got)
	}
}
