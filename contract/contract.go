//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"wisp-chat/domain"
	"wisp-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery side of one connected client.
// Consume must never block the caller longer than ctx allows.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// SessionEntry binds a joined identity to its live delivery sink.
// Entries are owned by the registry; handlers only hold references.
type SessionEntry struct {
	Identity domain.Identity
	Sink     EventSink
}

// IRegistry is the authoritative roster of joined clients.
type IRegistry interface {
	Join(identity domain.Identity, sink EventSink) (*SessionEntry, error)
	Leave(name string)
	Snapshot() []domain.Identity
	Sinks() []EventSink
}
