// Package event defines the events flowing from the server core to
// connected clients and from the client session to the UI collaborator.
// The UI maps Kind to a presentation (color); events never carry
// formatting themselves.
package event

import (
	"time"

	"github.com/google/uuid"
)

type Kind int

const (
	KindMessage Kind = iota
	KindSystem
	KindRoster
	KindError
)

type DomainEvent interface {
	EventKind() Kind
}

// MessageBroadcast is a chat message after the broadcaster assigned
// its global position. Every client observes these in Seq order.
type MessageBroadcast struct {
	ID      uuid.UUID
	Seq     uint64
	Sender  string
	Content string
	At      time.Time
}

func (MessageBroadcast) EventKind() Kind { return KindMessage }

// UserJoined announces a successful join to everyone already present.
type UserJoined struct {
	Name string
	At   time.Time
}

func (UserJoined) EventKind() Kind { return KindSystem }

// UserLeft announces a departure, graceful or not.
type UserLeft struct {
	Name string
	At   time.Time
}

func (UserLeft) EventKind() Kind { return KindSystem }

// RosterUpdate carries the point-in-time list of connected names.
type RosterUpdate struct {
	Names []string
}

func (RosterUpdate) EventKind() Kind { return KindRoster }

// SessionError is terminal: the connection is gone or a join was
// rejected. The UI shows it and the event stream ends.
type SessionError struct {
	Err error
}

func (SessionError) EventKind() Kind { return KindError }
