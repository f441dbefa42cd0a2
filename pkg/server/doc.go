// Package server exposes bound models over HTTP.
//
// Routes, relative to Config.BasePath (default "/tether"):
//
//	GET  {base}/{channel}.js         script binding the page to the channel's model
//	POST {base}/{channel}/{message}  inbound message, answered with "OK"
//	GET  {base}/ws                   websocket endpoint (when a hub is set)
//	GET  /metrics                    prometheus metrics (when a gatherer is set)
//
// Inbound messages, whether posted or received on the websocket, are routed
// by channel and message name to the handlers registered with Handle.
// Mount registers a binding's edit handler under the "watchers" message of
// its channel and serves its script.
//
// # Example Usage
//
//	h := hub.New(nil)
//	srv := server.New(server.Config{}, server.WithHub(h))
//	b, _ := bind.New(&Counter{}, h, bind.WithChannel("counter"))
//	srv.Mount(b)
//	http.ListenAndServe(":8080", srv)
//
// A page then loads the script after Vue:
//
//	<div id="app">{{ count }}</div>
//	<script src="/tether/counter.js"></script>
package server
