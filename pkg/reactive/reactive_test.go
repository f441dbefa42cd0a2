package reactive

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestReactiveBasic(t *testing.T) {
	count := New(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestReactiveZeroValue(t *testing.T) {
	var r Reactive[string]
	var got []string
	r.On("a", func(s string) { got = append(got, s) })
	r.Set("x")

	if r.Get() != "x" {
		t.Errorf("Get() = %q, want %q", r.Get(), "x")
	}
	if !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("notifications = %v", got)
	}
}

func TestReactiveNotifiesInRegistrationOrder(t *testing.T) {
	r := New(0)
	var order []string
	r.On("first", func(int) { order = append(order, "first") })
	r.On("second", func(int) { order = append(order, "second") })
	r.On("third", func(int) { order = append(order, "third") })

	r.Set(1)

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestReactiveNotifiesOnEverySet(t *testing.T) {
	r := New(1)
	calls := 0
	r.On("", func(int) { calls++ })

	r.Set(1)
	r.Set(1)

	if calls != 2 {
		t.Errorf("expected 2 notifications for equal writes, got %d", calls)
	}
}

func TestReactiveListenerReceivesNewValue(t *testing.T) {
	r := New("old")
	var got string
	r.On("l", func(s string) { got = s })
	r.Set("new")
	if got != "new" {
		t.Errorf("listener got %q, want %q", got, "new")
	}
}

func TestReactiveOnReplacesExistingKey(t *testing.T) {
	r := New(0)
	var calls []string
	r.On("a", func(int) { calls = append(calls, "a1") })
	r.On("b", func(int) { calls = append(calls, "b") })
	r.On("a", func(int) { calls = append(calls, "a2") })

	r.Set(1)

	want := []string{"a2", "b"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	if keys := r.Keys(); !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestReactiveGeneratedKeys(t *testing.T) {
	r := New(0)
	k1 := r.On("", func(int) {})
	k2 := r.On("", func(int) {})
	if k1 == "" || k2 == "" || k1 == k2 {
		t.Errorf("generated keys should be unique and non-empty: %q %q", k1, k2)
	}
	if r.On("x", nil) != "" {
		t.Error("nil listener should not be registered")
	}
}

func TestReactiveOff(t *testing.T) {
	r := New(0)
	var calls []string
	r.On("a", func(int) { calls = append(calls, "a") })
	r.On("b", func(int) { calls = append(calls, "b") })
	r.On("c", func(int) { calls = append(calls, "c") })

	if !r.Off("b") {
		t.Fatal("Off(b) should report removal")
	}
	if r.Off("missing") {
		t.Error("Off(missing) should report false")
	}

	r.Set(1)
	if !reflect.DeepEqual(calls, []string{"a", "c"}) {
		t.Errorf("calls = %v", calls)
	}
}

func TestSetExcept(t *testing.T) {
	r := New(0)
	var calls []string
	r.On("handler", func(int) { calls = append(calls, "handler") })
	r.On("broadcast", func(int) { calls = append(calls, "broadcast") })

	r.Set(1, Except("handler"))

	if !reflect.DeepEqual(calls, []string{"broadcast"}) {
		t.Errorf("calls = %v", calls)
	}
	if r.Get() != 1 {
		t.Errorf("value should be stored even when listeners are skipped")
	}
}

func TestSetWhen(t *testing.T) {
	tests := []struct {
		name string
		opts []SetOption
		want []string
	}{
		{
			name: "default fires all",
			want: []string{"a", "b"},
		},
		{
			name: "predicate gates",
			opts: []SetOption{When(func(key string) bool { return key == "b" })},
			want: []string{"b"},
		},
		{
			name: "except and predicate combine",
			opts: []SetOption{Except("b"), When(func(string) bool { return true })},
			want: []string{"a"},
		},
		{
			name: "predicate false and except",
			opts: []SetOption{Except("a"), When(func(key string) bool { return key == "a" })},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(0)
			var calls []string
			r.On("a", func(int) { calls = append(calls, "a") })
			r.On("b", func(int) { calls = append(calls, "b") })

			r.Set(1, tt.opts...)

			if !reflect.DeepEqual(calls, tt.want) {
				t.Errorf("calls = %v, want %v", calls, tt.want)
			}
		})
	}
}

func TestReactiveReentrantWrite(t *testing.T) {
	r := New(0)
	var seen []int
	r.On("clamp", func(n int) {
		if n > 10 {
			r.Set(10)
		}
	})
	r.On("record", func(n int) { seen = append(seen, n) })

	r.Set(42)

	if r.Get() != 10 {
		t.Errorf("Get() = %d, want 10", r.Get())
	}
	// The nested notification runs after the outer listeners complete.
	if !reflect.DeepEqual(seen, []int{42, 10}) {
		t.Errorf("seen = %v, want [42 10]", seen)
	}
}

func TestReactiveReentrantWriteOtherCell(t *testing.T) {
	a := New(0)
	b := New(0)
	var got []int
	a.On("mirror", func(n int) { b.Set(n * 2) })
	b.On("record", func(n int) { got = append(got, n) })

	a.Set(3)

	if b.Get() != 6 {
		t.Errorf("b = %d, want 6", b.Get())
	}
	if !reflect.DeepEqual(got, []int{6}) {
		t.Errorf("got = %v", got)
	}
}

func TestReactiveValueVisibleInsideNestedWrite(t *testing.T) {
	r := New("a")
	var after string
	r.On("nested", func(s string) {
		if s == "a2" {
			r.Set("b")
			after = r.Get()
		}
	})
	r.Set("a2")
	if after != "b" {
		t.Errorf("value after nested Set = %q, want %q", after, "b")
	}
}

func TestReactivePanicResetsDispatch(t *testing.T) {
	r := New(0)
	r.On("boom", func(n int) {
		if n == 1 {
			panic("boom")
		}
	})
	calls := 0
	r.On("count", func(int) { calls++ })

	func() {
		defer func() { _ = recover() }()
		r.Set(1)
	}()

	r.Set(2)
	if calls != 1 {
		t.Errorf("expected dispatch to recover after panic, got %d calls", calls)
	}
}

func TestReactiveConcurrentSets(t *testing.T) {
	r := New(0)
	var mu sync.Mutex
	count := 0
	r.On("count", func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Set(n)
		}(i)
	}
	wg.Wait()

	// Every write is delivered exactly once, by whichever goroutine drained.
	mu.Lock()
	defer mu.Unlock()
	if count != 50 {
		t.Errorf("expected 50 notifications, got %d", count)
	}
}

func TestAssign(t *testing.T) {
	f := New(1.5)
	if err := f.Assign(2.5); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if f.Get() != 2.5 {
		t.Errorf("Get() = %v", f.Get())
	}

	err := f.Assign("nope")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if err := f.Assign(int64(3)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Assign must not convert numeric types, got %v", err)
	}
	if err := f.Assign(nil); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("nil into float64 should fail, got %v", err)
	}

	s := New([]string{"a"})
	if err := s.Assign(nil); err != nil {
		t.Errorf("nil into slice should succeed, got %v", err)
	}
	if s.Get() != nil {
		t.Errorf("expected nil slice, got %v", s.Get())
	}
}

func TestCellInterface(t *testing.T) {
	var c Cell = New(int64(7))

	if c.Value() != int64(7) {
		t.Errorf("Value() = %v", c.Value())
	}
	if c.ValueType() != reflect.TypeOf(int64(0)) {
		t.Errorf("ValueType() = %v", c.ValueType())
	}

	var got any
	key := c.Listen("erased", func(v any) { got = v })
	if key != "erased" {
		t.Errorf("Listen() key = %q", key)
	}
	if err := c.Assign(int64(9)); err != nil {
		t.Fatal(err)
	}
	if got != int64(9) {
		t.Errorf("listener got %v", got)
	}
	if !c.Off("erased") {
		t.Error("Off should remove the erased listener")
	}
}

func TestCellInterfaceValueType(t *testing.T) {
	c := New[any](nil)
	if c.ValueType().Kind() != reflect.Interface {
		t.Errorf("ValueType().Kind() = %v, want Interface", c.ValueType().Kind())
	}
	if err := c.Assign("anything"); err != nil {
		t.Errorf("any accepts every value, got %v", err)
	}
}
