package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage reports that Send was a no-op: nothing was appended
	// and the input buffer was left untouched.
	ErrEmptyMessage = errors.New("chat: empty message")
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("chat: session closed")
)

// SendError reports that no assistant reply could be obtained for a message.
type SendError struct {
	MessageID string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("chat: reply to %s: %v", e.MessageID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Message is the inline text shown under the transcript.
func (e *SendError) Message() string {
	return "No se pudo obtener respuesta del asistente."
}

// StatusError is returned by HTTPTransport for non-2xx answers.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("assistant non-2xx: %d, body: %s", e.Status, e.Body)
}
