// Package tether keeps server-side Go models and browser views in sync.
//
// Declare a model with reactive fields, bind it, and serve the app:
//
//	type Counter struct {
//	    Count *reactive.Reactive[int]
//	    Label *reactive.Reactive[string] `tether:"label"`
//	}
//
//	app := tether.New(tether.Options{})
//	if _, err := app.Bind(&Counter{}, bind.WithChannel("counter")); err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(app.Run(ctx, ":8080"))
//
// The page loads /tether/counter.js, which mounts a Vue view of the model
// and keeps it in sync over the websocket at /tether/ws. Setting a field on
// the server reaches every browser; an edit in one browser is applied to
// the model and reaches every other browser.
package tether
