package server

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHandler is returned when no handler is registered for a channel
	// and message.
	ErrNoHandler = errors.New("server: no handler")

	// ErrNoBinding is returned when no model is mounted on a channel.
	ErrNoBinding = errors.New("server: no binding")
)

// RouteError wraps an error with the channel and message it occurred on.
type RouteError struct {
	Channel string
	Message string
	Err     error
}

// Error returns the error message with route context.
func (e *RouteError) Error() string {
	return fmt.Sprintf("server: %s/%s: %v", e.Channel, e.Message, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *RouteError) Unwrap() error {
	return e.Err
}
