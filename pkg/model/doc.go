// Package model describes bound model types and applies field updates to
// them.
//
// A model is a struct, passed by pointer, whose exported fields are either
// plain values or reactive cells:
//
//	type Form struct {
//	    Title string                      `tether:"title"`
//	    Count reactive.Reactive[int]      `tether:"count"`
//	    Ratio *reactive.Reactive[float64] `tether:"ratio"`
//	    cache map[string]string           // unexported, ignored
//	    Skip  int                         `tether:"-"`
//	}
//
// SchemaOf reflects over the type once and caches the resulting Schema, an
// ordered list of fields with their kind and declared value type. Rendering
// and updates reuse the schema instead of walking the type again.
//
// Fields are read through FieldValue, a tagged variant that is either Plain
// or Reactive. Update switches on the tag: reactive fields are assigned
// through their cell (notifying listeners), plain fields directly. Update
// never converts values; callers coerce first.
package model
