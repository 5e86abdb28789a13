// Package terminal defines the hardware reader collaborators.
//
// Ownership boundary:
// - reader enumeration and connect/disconnect contracts
//
// - tag status and tag-operations handle contracts
//
// Adapters call Handler methods from their own goroutine.
package terminal

import (
	"errors"
	"fmt"
)

var (
	ErrTagGone  = errors.New("terminal: tag no longer in field")
	ErrCapacity = errors.New("terminal: message exceeds tag capacity")
)

// Status is the tag sub-state of an active terminal.
type Status int

const (
	StatusDisconnected Status = iota
	StatusWaiting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusWaiting:
		return "waiting"
	case StatusConnected:
		return "connected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Enumerator finds the currently available reader. A nil Terminal with a
// nil error means no reader. Implementations return the same value for the
// same reader across calls.
type Enumerator interface {
	Available() (Terminal, error)
}

type Terminal interface {
	Name() string
	// Connect starts the adapter; status and tag events go to h until
	// Disconnect. h is never called on the caller's goroutine.
	Connect(h Handler) error
	// Disconnect stops the adapter. It must not wait on in-flight Handler
	// calls.
	Disconnect() error
}

type Handler interface {
	TagAvailable(ops TagOperations)
	StatusChanged(status Status)
	UnsupportedTag(tagType string)
}

// TagOperations reads and writes the tag currently in the field. The
// message bytes are a raw NDEF message.
type TagOperations interface {
	IsFormatted() bool
	HasMessage() bool
	ReadMessage() ([]byte, error)
	WriteMessage(msg []byte) error
	// Format formats a blank tag and writes msg in one step.
	Format(msg []byte) error
	// MaxSize is the largest message the tag accepts, or 0 when unknown.
	MaxSize() int
}
