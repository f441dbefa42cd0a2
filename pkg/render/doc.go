// Package render turns bound models and field values into the structures
// sent to clients.
//
// Model renders a whole model into the object the client binding layer
// mounts:
//
//	{
//	  "el": "#app",
//	  "data": {"title": "hello", "count": 3},
//	  "components": "",
//	  "methods": {},
//	  "mixins": ["tetherWatcher"]
//	}
//
// data keeps the model's declaration order and is keyed by wire name.
// Reactive fields are unwrapped, so a cell holding v renders exactly like v.
//
// Value renders a single value for push notifications using the same rules.
//
// Encode produces JSON with one extension: the Undefined sentinel is written
// as the bare JavaScript token undefined.
package render
