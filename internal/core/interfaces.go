package core

import "errors"

// Frame is a raw outbound payload, one JSON event per frame.
type Frame []byte

// SessionID identifies one transport-level connection.
type SessionID string

var (
	// ErrIdentityBound is returned when a connection that already carries
	// a user identity is asked to bind a different one.
	ErrIdentityBound = errors.New("session already bound to another identity")
	// ErrBackpressure is returned by a transport whose send buffer is full.
	ErrBackpressure = errors.New("backpressure")
)

// SignalConnection abstracts the messaging transport of one connection.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
