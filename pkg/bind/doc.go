// Package bind attaches a model to a channel.
//
// A Binding owns one model instance. Every reactive field gets a listener
// that pushes the rendered value to all clients of the channel whenever the
// field changes, whatever changed it. Client edits arrive through Handle,
// which coerces the wire values to the field's type, tells the other clients
// and stores the value:
//
//	type Counter struct {
//		Count reactive.Reactive[int] `tether:"count"`
//		Label string                 `tether:"label"`
//	}
//
//	b, err := bind.New(&Counter{}, hub, bind.WithChannel("counter"))
//	...
//	reply := b.Handle(ctx, payload) // always protocol.Ack
//
// The client that sent the edit is taken from the context
// (transport.CurrentClient) and skipped by the first broadcast. Storing the
// value then fires the field listener, which broadcasts again to every
// client including the sender. A client receiving its own value back sends
// an edit whose new and old values are equal, which Handle drops.
//
// Edits to one field are applied one at a time in arrival order. Edits to
// different fields run concurrently.
package bind
