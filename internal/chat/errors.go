package chat

import "errors"

var (
	// ErrSessionNotFound is returned when the session ID is unknown
	ErrSessionNotFound = errors.New("chat session not found")

	// ErrSessionClosed is returned when a message is sent to a closed session
	ErrSessionClosed = errors.New("chat session is closed")
)
