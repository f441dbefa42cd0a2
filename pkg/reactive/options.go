package reactive

// SetOption configures a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	except map[string]struct{}
	when   func(key string) bool
}

// Except skips the listeners registered under keys for this write.
func Except(keys ...string) SetOption {
	return func(o *setOptions) {
		if o.except == nil {
			o.except = make(map[string]struct{}, len(keys))
		}
		for _, k := range keys {
			o.except[k] = struct{}{}
		}
	}
}

// When notifies only listeners whose key satisfies pred.
func When(pred func(key string) bool) SetOption {
	return func(o *setOptions) {
		o.when = pred
	}
}

func buildSetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// skip reports whether the listener under key must not fire.
func (o setOptions) skip(key string) bool {
	if _, ok := o.except[key]; ok {
		return true
	}
	if o.when != nil && !o.when(key) {
		return true
	}
	return false
}
