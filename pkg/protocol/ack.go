package protocol

// Ack is the success token returned for every inbound edit, whether or not
// it changed the model.
const Ack = "OK"
