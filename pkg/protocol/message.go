package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Message types carried in Envelope.Message.
const (
	MessageWatchers    = "watchers"
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
)

// Envelope wraps every inbound message.
type Envelope struct {
	Channel string          `json:"channel,omitempty"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Edit is a client-side field change.
type Edit struct {
	Field  string `json:"field"`
	NewVal any    `json:"newval"`
	OldVal any    `json:"oldval"`
}

// Delta is a server-side field change pushed to clients.
type Delta struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// DecodeEnvelope decodes an inbound envelope. Limit the reader before calling
// when the input is untrusted.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return env, nil
}

// DecodeEdit decodes a watchers payload. Numbers become json.Number.
func DecodeEdit(payload []byte) (Edit, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return Edit{}, ErrEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var e Edit
	if err := dec.Decode(&e); err != nil {
		return Edit{}, fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Edit{}, fmt.Errorf("%w: trailing data", ErrInvalidEdit)
	}
	if e.Field == "" {
		return Edit{}, ErrMissingField
	}
	return e, nil
}

// EncodeDelta encodes an outbound delta.
func EncodeDelta(d Delta) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode delta %q: %w", d.Key, err)
	}
	return data, nil
}
