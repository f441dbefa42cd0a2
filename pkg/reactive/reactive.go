package reactive

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"
)

// ErrTypeMismatch is returned by Assign when the value is not assignable to
// the cell's value type.
var ErrTypeMismatch = errors.New("reactive: type mismatch")

// Cell is the type-erased view of a Reactive[T].
type Cell interface {
	// Value returns the current value.
	Value() any

	// ValueType returns T.
	ValueType() reflect.Type

	// Assign stores v if it is assignable to T and notifies listeners.
	Assign(v any, opts ...SetOption) error

	// Listen registers a listener receiving the new value as any.
	Listen(key string, fn func(any)) string

	// Off removes the listener registered under key.
	Off(key string) bool
}

type listener[T any] struct {
	key string
	fn  func(T)
}

type notification[T any] struct {
	value T
	opts  setOptions
}

// Reactive is an observable value cell. The zero value holds the zero T and
// has no listeners.
type Reactive[T any] struct {
	// mu guards every field below. It is never held while listeners run.
	mu sync.Mutex

	value     T
	listeners []listener[T]

	// pending holds notifications not yet delivered, in write order.
	pending     []notification[T]
	dispatching bool

	// seq numbers generated listener keys.
	seq uint64
}

// New creates a Reactive holding v.
func New[T any](v T) *Reactive[T] {
	return &Reactive[T]{value: v}
}

// Get returns the current value.
func (r *Reactive[T]) Get() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Set stores v and notifies listeners.
func (r *Reactive[T]) Set(v T, opts ...SetOption) {
	o := buildSetOptions(opts)

	r.mu.Lock()
	r.value = v
	r.pending = append(r.pending, notification[T]{value: v, opts: o})
	if r.dispatching {
		// Another frame (possibly our own caller) is draining the queue.
		r.mu.Unlock()
		return
	}
	r.dispatching = true
	r.mu.Unlock()

	r.drain()
}

// Update replaces the value with fn(current) and notifies listeners.
// The read and the store happen under the same lock.
func (r *Reactive[T]) Update(fn func(T) T, opts ...SetOption) {
	o := buildSetOptions(opts)

	r.mu.Lock()
	v := fn(r.value)
	r.value = v
	r.pending = append(r.pending, notification[T]{value: v, opts: o})
	if r.dispatching {
		r.mu.Unlock()
		return
	}
	r.dispatching = true
	r.mu.Unlock()

	r.drain()
}

// drain delivers queued notifications until the queue is empty.
func (r *Reactive[T]) drain() {
	defer func() {
		if p := recover(); p != nil {
			r.mu.Lock()
			r.dispatching = false
			r.pending = nil
			r.mu.Unlock()
			panic(p)
		}
	}()

	for {
		r.mu.Lock()
		if len(r.pending) == 0 {
			r.dispatching = false
			r.pending = nil
			r.mu.Unlock()
			return
		}
		n := r.pending[0]
		r.pending[0] = notification[T]{}
		r.pending = r.pending[1:]

		// Copy listeners so a listener may subscribe or unsubscribe.
		ls := make([]listener[T], len(r.listeners))
		copy(ls, r.listeners)
		r.mu.Unlock()

		for _, l := range ls {
			if n.opts.skip(l.key) {
				continue
			}
			l.fn(n.value)
		}
	}
}

// On registers fn under key and returns the key. An empty key is replaced by
// a generated one. Registering an existing key replaces that listener in
// place, keeping its position.
func (r *Reactive[T]) On(key string, fn func(T)) string {
	if fn == nil {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if key == "" {
		r.seq++
		key = "listener-" + strconv.FormatUint(r.seq, 10)
	}
	for i := range r.listeners {
		if r.listeners[i].key == key {
			r.listeners[i].fn = fn
			return key
		}
	}
	r.listeners = append(r.listeners, listener[T]{key: key, fn: fn})
	return key
}

// Off removes the listener registered under key. It reports whether a
// listener was removed.
func (r *Reactive[T]) Off(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.listeners {
		if r.listeners[i].key == key {
			// Order matters, so shift rather than swap.
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns listener keys in registration order.
func (r *Reactive[T]) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, len(r.listeners))
	for i, l := range r.listeners {
		keys[i] = l.key
	}
	return keys
}

// Value implements Cell.
func (r *Reactive[T]) Value() any {
	return r.Get()
}

// ValueType implements Cell.
func (r *Reactive[T]) ValueType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Assign implements Cell. It never converts: v must be nil (for a nilable T)
// or assignable to T.
func (r *Reactive[T]) Assign(v any, opts ...SetOption) error {
	if v == nil {
		t := r.ValueType()
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			var zero T
			r.Set(zero, opts...)
			return nil
		}
		return fmt.Errorf("%w: nil is not a %s", ErrTypeMismatch, t)
	}
	tv, ok := v.(T)
	if !ok {
		return fmt.Errorf("%w: %T is not a %s", ErrTypeMismatch, v, r.ValueType())
	}
	r.Set(tv, opts...)
	return nil
}

// Listen implements Cell.
func (r *Reactive[T]) Listen(key string, fn func(any)) string {
	if fn == nil {
		return ""
	}
	return r.On(key, func(v T) { fn(v) })
}

// String returns the current value formatted with %v.
func (r *Reactive[T]) String() string {
	return fmt.Sprintf("%v", r.Get())
}
