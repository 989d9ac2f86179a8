package core

//go:generate mockgen -source=connection.go -destination=mocks/mock_connection.go -package=mocks

import "errors"

var (
	ErrBackpressure     = errors.New("backpressure")
	ErrConnectionClosed = errors.New("connection closed")
)

// Connection abstracts a push transport (SSE stream or WebSocket) to one client.
// Owned by the adapter: rooms only send to it and abort it, never read from it.
//
// Send must not block; a full buffer is reported as ErrBackpressure.
// Abort must be safe to call more than once and from any goroutine.
type Connection interface {
	Send(Event) error
	Abort()
}
