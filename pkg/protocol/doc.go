// Package protocol defines the JSON messages exchanged between bound
// clients and the server.
//
// # Inbound
//
// Every inbound message is an Envelope. Over HTTP only the payload is
// required; over the websocket the envelope also names the channel and the
// message type:
//
//	{"channel": "counter", "message": "watchers",
//	 "payload": {"field": "count", "newval": 4, "oldval": 3}}
//
// The watchers payload decodes into an Edit. Numbers are kept as
// json.Number so that 5 and 5.0 stay distinguishable.
//
// Control messages use the same envelope with message set to "subscribe" or
// "unsubscribe" and no payload.
//
// # Outbound
//
// Field changes are pushed as a Delta:
//
//	{"key": "count", "value": 4}
//
// # Acknowledgement
//
// Inbound edits are acknowledged with the fixed token Ack.
package protocol
