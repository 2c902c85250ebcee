// Package socket defines the full-duplex message channel a cocodb session
// drives, and a WebSocket implementation of it.
//
// A socket reports its lifecycle through the emit callback handed to the
// DialFunc that created it:
//
//   - EventOpened once the channel is usable
//   - EventMessage for every inbound frame, text or binary
//   - EventClosed exactly once, after a deliberate Terminate or a network loss
//
// Implementations must never invoke emit synchronously from Send or
// Terminate; the session calls those from the goroutine that consumes events.
package socket

import (
	"errors"
	"net/http"
)

var (
	ErrClosed    = errors.New("socket: closed")
	ErrQueueFull = errors.New("socket: send queue full")
)

// EventKind identifies a socket lifecycle notification.
type EventKind int

const (
	EventOpened EventKind = iota
	EventMessage
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventMessage:
		return "message"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one notification emitted by a Socket.
type Event struct {
	Kind EventKind
	Data []byte // payload of EventMessage
	Err  error  // cause of EventClosed, nil after Terminate
}

// Socket is a live or connecting message channel.
type Socket interface {
	// Send queues one text message. It must not block on the network.
	Send(data []byte) error

	// Terminate tears the channel down without a closing handshake.
	// EventClosed follows asynchronously. Repeated calls are no-ops.
	Terminate()
}

// DialFunc starts connecting to endpoint and returns immediately.
type DialFunc func(endpoint string, header http.Header, emit func(Event)) Socket
