package protocol

import "errors"

// Decode errors.
var (
	// ErrInvalidEnvelope is returned for input that is not an envelope object.
	ErrInvalidEnvelope = errors.New("protocol: invalid envelope")

	// ErrEmptyPayload is returned when a watchers message has no payload.
	ErrEmptyPayload = errors.New("protocol: empty payload")

	// ErrInvalidEdit is returned for a payload that is not an edit object.
	ErrInvalidEdit = errors.New("protocol: invalid edit")

	// ErrMissingField is returned when an edit does not name a field.
	ErrMissingField = errors.New("protocol: edit has no field")
)
