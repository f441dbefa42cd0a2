package bind

import (
	"errors"
	"fmt"

	"github.com/vango-dev/tether/pkg/model"
)

// ErrClosed is returned by Apply after Close.
var ErrClosed = errors.New("bind: binding closed")

// UnknownFieldError is returned when an edit names a field the model does
// not have, under either its server or its wire name.
type UnknownFieldError struct {
	Channel string
	Field   string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("bind: channel %q: unknown field %q", e.Channel, e.Field)
}

// Unwrap returns model.ErrUnknownField.
func (e *UnknownFieldError) Unwrap() error {
	return model.ErrUnknownField
}

// TransportError wraps a failed broadcast.
type TransportError struct {
	Channel string
	Field   string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bind: broadcast %q on channel %q: %v", e.Field, e.Channel, e.Err)
}

// Unwrap returns the transport's error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
